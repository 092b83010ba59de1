package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// ListActiveStories implements domain.StoryRepo.
func (p *Postgres) ListActiveStories(ctx context.Context, authorIDs []int64, since time.Time) ([]domain.Story, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, author_id, media_url, created_at, expires_at
FROM stories
WHERE author_id = ANY($1) AND created_at >= $2 AND expires_at > now()
ORDER BY created_at DESC, id DESC
`, authorIDs, since)
	metrics.ObserveNetworkRequest("postgres", "stories_list_active", "stories", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Story
	for rows.Next() {
		var s domain.Story
		if err := rows.Scan(&s.ID, &s.AuthorID, &s.MediaURL, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListViewedStoryIDs implements domain.StoryRepo.
func (p *Postgres) ListViewedStoryIDs(ctx context.Context, viewerID int64) ([]int64, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT story_id FROM story_views WHERE viewer_id=$1 ORDER BY story_id`, viewerID)
	metrics.ObserveNetworkRequest("postgres", "story_views_list", "story_views", start, err)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// AddStoryView implements domain.StoryRepo. Repeated views are no-ops.
func (p *Postgres) AddStoryView(ctx context.Context, viewerID, storyID int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO story_views (story_id, viewer_id)
VALUES ($1, $2)
ON CONFLICT (story_id, viewer_id) DO NOTHING
`, storyID, viewerID)
	metrics.ObserveNetworkRequest("postgres", "story_views_insert", "story_views", start, err)
	return err
}
