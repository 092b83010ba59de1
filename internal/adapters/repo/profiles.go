package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

const profileColumns = `id, username, full_name, avatar_url, city, district, province, language_preference, interests,
followers_count, following_count, last_active, is_verified, is_banned, is_active`

// ListFollowing implements domain.FollowRepo.
func (p *Postgres) ListFollowing(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT following_id FROM follows WHERE follower_id=$1 ORDER BY following_id`, userID)
	metrics.ObserveNetworkRequest("postgres", "follows_list_following", "follows", start, err)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// GetProfile implements domain.ProfileRepo.
func (p *Postgres) GetProfile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id=$1`, userID)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "users_get_profile", "users", start, nil)
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	metrics.ObserveNetworkRequest("postgres", "users_get_profile", "users", start, err)
	return profile, err
}

// GetProfiles implements domain.ProfileRepo. Missing ids are skipped.
func (p *Postgres) GetProfiles(ctx context.Context, userIDs []int64) ([]domain.UserProfile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	return p.queryProfiles(ctx, "users_get_profiles", `SELECT `+profileColumns+` FROM users WHERE id = ANY($1) ORDER BY id`, userIDs)
}

// ListPopular implements domain.ProfileRepo.
func (p *Postgres) ListPopular(ctx context.Context, q domain.PopularQuery) ([]domain.UserProfile, error) {
	if q.Limit <= 0 {
		return nil, nil
	}
	exclude := q.ExcludeIDs
	if exclude == nil {
		exclude = []int64{}
	}
	return p.queryProfiles(ctx, "users_list_popular", `
SELECT `+profileColumns+`
FROM users
WHERE is_active AND NOT is_banned AND last_active >= $1 AND NOT (id = ANY($2))
ORDER BY followers_count DESC, id
LIMIT $3
`, q.ActiveSince, exclude, q.Limit)
}

func (p *Postgres) queryProfiles(ctx context.Context, op, query string, args ...any) ([]domain.UserProfile, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (domain.UserProfile, error) {
	var (
		u                        domain.UserProfile
		city, district, province *string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.FullName, &u.AvatarURL, &city, &district, &province,
		&u.LanguagePreference, &u.Interests, &u.FollowersCount, &u.FollowingCount,
		&u.LastActive, &u.IsVerified, &u.IsBanned, &u.IsActive,
	)
	if err != nil {
		return domain.UserProfile{}, err
	}
	u.Location = locationFromColumns(city, district, province)
	return u, nil
}
