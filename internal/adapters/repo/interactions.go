package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// Column names per closed enum value. Only these ever reach SQL text.
var kindColumn = map[domain.InteractionKind]string{
	domain.InteractionLike:    "like",
	domain.InteractionComment: "comment",
	domain.InteractionShare:   "share",
	domain.InteractionSave:    "save",
	domain.InteractionView:    "view",
}

var contentTypeColumn = map[domain.ContentType]string{
	domain.ContentImage: "image_count",
	domain.ContentVideo: "video_count",
	domain.ContentText:  "text_count",
}

var languageColumn = map[domain.Language]string{
	domain.LanguageNepali:  "nepali_count",
	domain.LanguageEnglish: "english_count",
	domain.LanguageMixed:   "mixed_count",
}

const interactionColumns = `viewer_id, author_id,
like_count, like_at, comment_count, comment_at, share_count, share_at, save_count, save_at, view_count, view_at,
image_count, video_count, text_count, nepali_count, english_count, mixed_count,
total_interactions, last_interaction`

// interactionUpsertSQL builds a single-statement upsert that increments the counters touched by event.
//
// Every increment is relative to the stored row (col = interaction_records.col + 1),
// so two events for the same pair never overwrite each other, whichever commits
// first. Timestamps only move forward through GREATEST, which makes late
// redeliveries from the queue harmless for recency. Column names come from the
// closed enum maps above; values are always bound parameters.
func interactionUpsertSQL(event domain.InteractionEvent) (string, error) {
	kind, ok := kindColumn[event.Kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInteraction, event.Kind)
	}
	cols := []string{"viewer_id", "author_id", kind + "_count", kind + "_at", "total_interactions", "last_interaction"}
	vals := []string{"$1", "$2", "1", "$3", "1", "$3"}
	sets := []string{
		fmt.Sprintf("%[1]s_count = interaction_records.%[1]s_count + 1", kind),
		fmt.Sprintf("%[1]s_at = GREATEST(interaction_records.%[1]s_at, EXCLUDED.%[1]s_at)", kind),
		"total_interactions = interaction_records.total_interactions + 1",
		"last_interaction = GREATEST(interaction_records.last_interaction, EXCLUDED.last_interaction)",
	}
	for _, col := range []string{contentTypeColumn[event.ContentType], languageColumn[event.Language]} {
		if col == "" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, "1")
		sets = append(sets, fmt.Sprintf("%[1]s = interaction_records.%[1]s + 1", col))
	}
	return fmt.Sprintf(`INSERT INTO interaction_records (%s)
VALUES (%s)
ON CONFLICT (viewer_id, author_id) DO UPDATE SET
%s`, strings.Join(cols, ", "), strings.Join(vals, ", "), strings.Join(sets, ",\n")), nil
}

// UpsertInteraction implements domain.InteractionRepo.
// The record and its tag counters change in one transaction; concurrent events never lose increments.
func (p *Postgres) UpsertInteraction(ctx context.Context, event domain.InteractionEvent) error {
	query, err := interactionUpsertSQL(event)
	if err != nil {
		return err
	}
	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "interaction_records", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, query, event.ViewerID, event.AuthorID, at)
	metrics.ObserveNetworkRequest("postgres", "interaction_records_upsert", "interaction_records", start, err)
	if err != nil {
		return err
	}

	tags := domain.NormalizeTags(event.Tags)
	if len(tags) > 0 {
		batch := &pgx.Batch{}
		for _, tag := range tags {
			batch.Queue(`
INSERT INTO interaction_tags (viewer_id, author_id, tag, count, last_at)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (viewer_id, author_id, tag) DO UPDATE SET
count = interaction_tags.count + 1,
last_at = GREATEST(interaction_tags.last_at, EXCLUDED.last_at)
`, event.ViewerID, event.AuthorID, tag, at)
		}
		start = time.Now()
		br := tx.SendBatch(ctx, batch)
		metrics.ObserveNetworkRequest("postgres", "interaction_tags_send_batch", "interaction_tags", start, nil)
		for range tags {
			start = time.Now()
			_, err = br.Exec()
			metrics.ObserveNetworkRequest("postgres", "interaction_tags_upsert", "interaction_tags", start, err)
			if err != nil {
				_ = br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "interaction_records", start, err)
	return err
}

// GetInteraction implements domain.InteractionRepo.
func (p *Postgres) GetInteraction(ctx context.Context, viewerID, authorID int64) (domain.InteractionRecord, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+interactionColumns+` FROM interaction_records WHERE viewer_id=$1 AND author_id=$2`, viewerID, authorID)
	rec, err := scanInteraction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "interaction_records_get", "interaction_records", start, nil)
		return domain.InteractionRecord{}, domain.ErrInteractionNotFound
	}
	metrics.ObserveNetworkRequest("postgres", "interaction_records_get", "interaction_records", start, err)
	if err != nil {
		return domain.InteractionRecord{}, err
	}

	tags, err := p.listTags(ctx, `WHERE viewer_id=$1 AND author_id=$2`, viewerID, authorID)
	if err != nil {
		return domain.InteractionRecord{}, err
	}
	rec.Tags = tags[authorID]
	return rec, nil
}

// ListInteractionsByViewer implements domain.InteractionRepo.
func (p *Postgres) ListInteractionsByViewer(ctx context.Context, viewerID int64) ([]domain.InteractionRecord, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+interactionColumns+` FROM interaction_records WHERE viewer_id=$1 ORDER BY author_id`, viewerID)
	metrics.ObserveNetworkRequest("postgres", "interaction_records_list", "interaction_records", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.InteractionRecord
	for rows.Next() {
		rec, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	tags, err := p.listTags(ctx, `WHERE viewer_id=$1`, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Tags = tags[records[i].AuthorID]
	}
	return records, nil
}

// listTags returns tag counters grouped by author.
func (p *Postgres) listTags(ctx context.Context, where string, args ...any) (map[int64][]domain.TagCounter, error) {
	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT author_id, tag, count, last_at FROM interaction_tags `+where+` ORDER BY author_id, tag`, args...)
	metrics.ObserveNetworkRequest("postgres", "interaction_tags_list", "interaction_tags", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.TagCounter)
	for rows.Next() {
		var (
			authorID int64
			t        domain.TagCounter
		)
		if err := rows.Scan(&authorID, &t.Tag, &t.Count, &t.LastAt); err != nil {
			return nil, err
		}
		out[authorID] = append(out[authorID], t)
	}
	return out, rows.Err()
}

func scanInteraction(row pgx.Row) (domain.InteractionRecord, error) {
	var (
		viewerID, authorID                     int64
		counts                                 [5]int64
		ats                                    [5]*time.Time
		image, video, text, nepali, eng, mixed int64
		total                                  int64
		last                                   time.Time
	)
	err := row.Scan(
		&viewerID, &authorID,
		&counts[0], &ats[0], &counts[1], &ats[1], &counts[2], &ats[2], &counts[3], &ats[3], &counts[4], &ats[4],
		&image, &video, &text, &nepali, &eng, &mixed,
		&total, &last,
	)
	if err != nil {
		return domain.InteractionRecord{}, err
	}

	rec := domain.NewInteractionRecord(viewerID, authorID)
	kinds := []domain.InteractionKind{
		domain.InteractionLike, domain.InteractionComment, domain.InteractionShare, domain.InteractionSave, domain.InteractionView,
	}
	for i, kind := range kinds {
		if counts[i] == 0 {
			continue
		}
		c := domain.KindCounter{Count: counts[i]}
		if ats[i] != nil {
			c.LastAt = ats[i].UTC()
		}
		rec.Kinds[kind] = c
	}
	for ct, n := range map[domain.ContentType]int64{domain.ContentImage: image, domain.ContentVideo: video, domain.ContentText: text} {
		if n > 0 {
			rec.ContentTypes[ct] = n
		}
	}
	for lang, n := range map[domain.Language]int64{domain.LanguageNepali: nepali, domain.LanguageEnglish: eng, domain.LanguageMixed: mixed} {
		if n > 0 {
			rec.Languages[lang] = n
		}
	}
	rec.TotalInteractions = total
	rec.LastInteraction = last.UTC()
	return rec, nil
}
