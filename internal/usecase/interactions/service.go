package interactions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/validation"
)

// DefaultHalfLifeDays is used when no half-life is given.
const DefaultHalfLifeDays = 7.0

// Config tunes the interaction store.
type Config struct {
	HalfLifeDays float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{HalfLifeDays: DefaultHalfLifeDays}
}

// Service owns interaction records: recording, decay and preference aggregation.
type Service struct {
	repo domain.InteractionRepo
	cfg  Config
	log  zerolog.Logger
	now  func() time.Time
}

var _ domain.InteractionRecorder = (*Service)(nil)

// NewService creates the interaction store service.
func NewService(repo domain.InteractionRepo, cfg Config, logger zerolog.Logger) *Service {
	if cfg.HalfLifeDays <= 0 {
		cfg.HalfLifeDays = DefaultHalfLifeDays
	}
	return &Service{repo: repo, cfg: cfg, log: logger, now: time.Now}
}

// RecordInteraction validates event and increments the pair's counters.
// Every call counts; duplicates are the caller's concern.
func (s *Service) RecordInteraction(ctx context.Context, event domain.InteractionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	event.Tags = domain.NormalizeTags(event.Tags)
	if err := validation.Struct(event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInteraction, err)
	}
	if err := s.repo.UpsertInteraction(ctx, event); err != nil {
		return fmt.Errorf("upsert interaction: %w", err)
	}
	metrics.IncInteraction(string(event.Kind))
	s.log.Debug().
		Int64("viewer", event.ViewerID).
		Int64("author", event.AuthorID).
		Str("kind", string(event.Kind)).
		Msg("interactions: recorded")
	return nil
}

// DecayedScore returns the decayed count of kind for the pair.
// A halfLifeDays of zero uses the configured half-life.
func (s *Service) DecayedScore(ctx context.Context, viewerID, authorID int64, kind domain.InteractionKind, halfLifeDays float64) (float64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInteraction, kind)
	}
	if halfLifeDays <= 0 {
		halfLifeDays = s.cfg.HalfLifeDays
	}
	record, err := s.repo.GetInteraction(ctx, viewerID, authorID)
	if errors.Is(err, domain.ErrInteractionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load interaction: %w", err)
	}
	c := record.Counter(kind)
	return Decay(c.Count, c.LastAt, s.now(), halfLifeDays), nil
}

// Preferences recomputes the viewer's preferences from all of their records.
func (s *Service) Preferences(ctx context.Context, viewerID int64) (domain.Preferences, error) {
	records, err := s.repo.ListInteractionsByViewer(ctx, viewerID)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("list interactions: %w", err)
	}
	return AggregatePreferences(viewerID, records), nil
}

// Decay applies exponential half-life decay: count * 0.5^(days/halfLifeDays).
func Decay(count int64, last, now time.Time, halfLifeDays float64) float64 {
	if count <= 0 {
		return 0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	days := now.Sub(last).Hours() / 24
	if days < 0 {
		days = 0
	}
	return float64(count) * math.Pow(0.5, days/halfLifeDays)
}

// AggregatePreferences sums content-type and language counters, merges tags by name
// and orders tags by count, then name.
func AggregatePreferences(viewerID int64, records []domain.InteractionRecord) domain.Preferences {
	prefs := domain.Preferences{
		ViewerID:     viewerID,
		ContentTypes: make(map[domain.ContentType]int64, len(domain.ContentTypes())),
		Languages:    make(map[domain.Language]int64, len(domain.Languages())),
	}
	for _, ct := range domain.ContentTypes() {
		prefs.ContentTypes[ct] = 0
	}
	for _, l := range domain.Languages() {
		prefs.Languages[l] = 0
	}

	tagTotals := make(map[string]int64)
	for _, r := range records {
		for _, ct := range domain.ContentTypes() {
			prefs.ContentTypes[ct] += r.ContentTypes[ct]
		}
		for _, l := range domain.Languages() {
			prefs.Languages[l] += r.Languages[l]
		}
		for _, t := range r.Tags {
			tagTotals[t.Tag] += t.Count
		}
		prefs.TotalInteractions += r.TotalInteractions
	}

	prefs.Tags = make([]domain.TagCount, 0, len(tagTotals))
	for tag, count := range tagTotals {
		prefs.Tags = append(prefs.Tags, domain.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(prefs.Tags, func(i, j int) bool {
		if prefs.Tags[i].Count != prefs.Tags[j].Count {
			return prefs.Tags[i].Count > prefs.Tags[j].Count
		}
		return prefs.Tags[i].Tag < prefs.Tags[j].Tag
	})
	return prefs
}
