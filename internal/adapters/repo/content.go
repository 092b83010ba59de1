package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

const contentColumns = `id, author_id, kind, content_type, language, city, district, province, caption, tags,
likes, comments, shares, saves, views,
score_engagement, score_locality, score_language, score_relationship, score_final, created_at`

const contentVisible = `NOT is_deleted AND NOT is_archived`

// ListByAuthors implements domain.ContentRepo.
func (p *Postgres) ListByAuthors(ctx context.Context, kind domain.ContentKind, authorIDs []int64, since time.Time, limit int) ([]domain.ContentItem, error) {
	if len(authorIDs) == 0 || limit <= 0 {
		return nil, nil
	}
	return p.queryContent(ctx, "content_list_by_authors", `
SELECT `+contentColumns+`
FROM content_items
WHERE kind = $1 AND author_id = ANY($2) AND created_at >= $3 AND `+contentVisible+`
ORDER BY created_at DESC, id DESC
LIMIT $4
`, kind, authorIDs, since, limit)
}

// ListRecent implements domain.ContentRepo.
func (p *Postgres) ListRecent(ctx context.Context, kind domain.ContentKind, since time.Time, excludeAuthorID int64, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	return p.queryContent(ctx, "content_list_recent", `
SELECT `+contentColumns+`
FROM content_items
WHERE kind = $1 AND created_at >= $2 AND author_id <> $3 AND `+contentVisible+`
ORDER BY created_at DESC, id DESC
LIMIT $4
`, kind, since, excludeAuthorID, limit)
}

// ListByCity implements domain.ContentRepo.
func (p *Postgres) ListByCity(ctx context.Context, kind domain.ContentKind, city string, limit int) ([]domain.ContentItem, error) {
	if city == "" || limit <= 0 {
		return nil, nil
	}
	return p.queryContent(ctx, "content_list_by_city", `
SELECT `+contentColumns+`
FROM content_items
WHERE kind = $1 AND city = $2 AND `+contentVisible+`
ORDER BY created_at DESC, id DESC
LIMIT $3
`, kind, city, limit)
}

// ListTrending implements domain.ContentRepo.
func (p *Postgres) ListTrending(ctx context.Context, kind domain.ContentKind, since time.Time, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	return p.queryContent(ctx, "content_list_trending", `
SELECT `+contentColumns+`
FROM content_items
WHERE kind = $1 AND created_at >= $2 AND `+contentVisible+`
ORDER BY likes DESC, created_at DESC, id DESC
LIMIT $3
`, kind, since, limit)
}

func (p *Postgres) queryContent(ctx context.Context, op, query string, args ...any) ([]domain.ContentItem, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "content_items", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var (
			item                     domain.ContentItem
			city, district, province *string
		)
		if err := rows.Scan(
			&item.ID, &item.AuthorID, &item.Kind, &item.ContentType, &item.Language,
			&city, &district, &province, &item.Caption, &item.Tags,
			&item.Counters.Likes, &item.Counters.Comments, &item.Counters.Shares, &item.Counters.Saves, &item.Counters.Views,
			&item.Scores.Engagement, &item.Scores.Locality, &item.Scores.Language, &item.Scores.Relationship, &item.Scores.Final,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Location = locationFromColumns(city, district, province)
		items = append(items, item)
	}
	return items, rows.Err()
}

// SaveScores implements domain.ScoreWriter.
func (p *Postgres) SaveScores(ctx context.Context, scores map[int64]domain.ScoreBreakdown) error {
	if len(scores) == 0 {
		return nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for id, s := range scores {
		batch.Queue(`
UPDATE content_items
SET score_engagement=$2, score_locality=$3, score_language=$4, score_relationship=$5, score_final=$6, scored_at=$7
WHERE id=$1
`, id, s.Engagement, s.Locality, s.Language, s.Relationship, s.Final, now)
	}
	start := time.Now()
	br := p.pool.SendBatch(ctx, batch)
	metrics.ObserveNetworkRequest("postgres", "content_send_batch", "content_items", start, nil)
	defer br.Close()
	for range scores {
		start = time.Now()
		_, err := br.Exec()
		metrics.ObserveNetworkRequest("postgres", "content_save_scores", "content_items", start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListComments implements domain.CommentRepo.
func (p *Postgres) ListComments(ctx context.Context, itemIDs []int64) ([]domain.Comment, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, item_id, parent_id, author_id, body, created_at
FROM comments WHERE item_id = ANY($1)
ORDER BY created_at, id
`, itemIDs)
	metrics.ObserveNetworkRequest("postgres", "comments_list", "comments", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ParentID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
