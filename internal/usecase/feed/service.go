package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jinesh-basnet/Naaya-sub000/internal/adapters/ranker"
	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/comments"
)

// Config bounds candidate windows and page sizes.
type Config struct {
	WindowDays      int
	TrendingDays    int
	OverFetch       int
	MaxCandidates   int
	MaxPageSize     int
	DefaultPageSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{WindowDays: 30, TrendingDays: 7, OverFetch: 3, MaxCandidates: 1000, MaxPageSize: 50, DefaultPageSize: 20}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = d.WindowDays
	}
	if c.TrendingDays <= 0 {
		c.TrendingDays = d.TrendingDays
	}
	if c.OverFetch <= 0 {
		c.OverFetch = d.OverFetch
	}
	if c.MaxCandidates <= 0 {
		c.MaxCandidates = d.MaxCandidates
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = d.MaxPageSize
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = min(d.DefaultPageSize, c.MaxPageSize)
	}
	return c
}

// Graph is the part of the relationship graph the feed needs.
type Graph interface {
	OneHop(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

// Query is one feed request. Page is 1-based.
type Query struct {
	ViewerID int64
	Kind     domain.ContentKind
	Type     domain.FeedType
	Page     int
	PageSize int
}

// Option customizes a Service.
type Option func(*Service)

// WithComments makes the assembler count nested replies from the comment table.
func WithComments(repo domain.CommentRepo) Option {
	return func(s *Service) { s.comments = repo }
}

// WithScoreWriter enables best-effort write-back of computed scores.
func WithScoreWriter(w domain.ScoreWriter) Option {
	return func(s *Service) { s.scores = w }
}

// Service assembles ranked, paginated feeds.
type Service struct {
	content  domain.ContentRepo
	profiles domain.ProfileRepo
	graph    Graph
	scorer   *ranker.ContentScorer
	comments domain.CommentRepo
	scores   domain.ScoreWriter
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

var _ domain.FeedService = (*Service)(nil)

// NewService creates the feed assembler.
func NewService(content domain.ContentRepo, profiles domain.ProfileRepo, graph Graph, scorer *ranker.ContentScorer, cfg Config, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		content:  content,
		profiles: profiles,
		graph:    graph,
		scorer:   scorer,
		cfg:      cfg.withDefaults(),
		log:      logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetFeed assembles a post feed.
func (s *Service) GetFeed(ctx context.Context, viewerID int64, feedType domain.FeedType, page, pageSize int) ([]domain.RankedItem, error) {
	return s.Assemble(ctx, Query{ViewerID: viewerID, Kind: domain.KindPost, Type: feedType, Page: page, PageSize: pageSize})
}

// Assemble builds one page of a feed. Unknown feed types and kinds yield an empty page.
func (s *Service) Assemble(ctx context.Context, q Query) ([]domain.RankedItem, error) {
	start := s.now()
	q = s.normalize(q)
	if !q.Type.Valid() || (q.Kind != domain.KindPost && q.Kind != domain.KindReel) {
		return []domain.RankedItem{}, nil
	}

	ranked, err := s.rank(ctx, q)
	if err != nil {
		metrics.IncRankingUnavailable("feed")
		s.log.Error().Err(err).Int64("viewer", q.ViewerID).Str("feed_type", string(q.Type)).Msg("feed: assemble failed")
		return nil, domain.Unavailable("feed", err)
	}

	page := paginate(ranked, q.Page, q.PageSize)
	s.writeBack(ctx, page)
	metrics.ObserveFeed(string(q.Type), start, len(page))
	return page, nil
}

func (s *Service) normalize(q Query) Query {
	if q.Kind == "" {
		q.Kind = domain.KindPost
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = s.cfg.DefaultPageSize
	}
	if q.PageSize > s.cfg.MaxPageSize {
		q.PageSize = s.cfg.MaxPageSize
	}
	// Pages past the candidate cap are always empty; clamping keeps the
	// window arithmetic far from int overflow.
	q.Page = min(q.Page, s.cfg.MaxCandidates/q.PageSize+1)
	return q
}

// window is the number of items needed to fill pages 1..q.Page.
func (s *Service) window(q Query) int {
	return min(q.Page*q.PageSize, s.cfg.MaxCandidates)
}

// candidateLimit over-fetches the unscored source so ranking has room to reorder.
func (s *Service) candidateLimit(q Query) int {
	return min(q.Page*q.PageSize*s.cfg.OverFetch, s.cfg.MaxCandidates)
}

func (s *Service) rank(ctx context.Context, q Query) ([]domain.RankedItem, error) {
	viewer, err := s.viewerContext(ctx, q.ViewerID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	switch q.Type {
	case domain.FeedFollowing:
		authors := make([]int64, 0, len(viewer.Following)+1)
		authors = append(authors, q.ViewerID)
		for id := range viewer.Following {
			authors = append(authors, id)
		}
		items, err := s.content.ListByAuthors(ctx, q.Kind, authors, time.Time{}, s.window(q))
		if err != nil {
			return nil, fmt.Errorf("list following items: %w", err)
		}
		return s.unscored(ctx, items)

	case domain.FeedForYou, domain.FeedExplore:
		return s.personalized(ctx, q, viewer, now.AddDate(0, 0, -s.cfg.WindowDays))

	case domain.FeedNearby:
		if viewer.Location == nil || viewer.Location.City == "" {
			return nil, nil
		}
		items, err := s.content.ListByCity(ctx, q.Kind, viewer.Location.City, s.window(q))
		if err != nil {
			return nil, fmt.Errorf("list nearby items: %w", err)
		}
		return s.unscored(ctx, items)

	case domain.FeedTrending:
		items, err := s.content.ListTrending(ctx, q.Kind, now.AddDate(0, 0, -s.cfg.TrendingDays), s.window(q))
		if err != nil {
			return nil, fmt.Errorf("list trending items: %w", err)
		}
		return s.unscored(ctx, items)
	}
	return nil, nil
}

// personalized scores recent items of others and pins the viewer's own items on top.
func (s *Service) personalized(ctx context.Context, q Query, viewer domain.ViewerContext, since time.Time) ([]domain.RankedItem, error) {
	var own, others []domain.ContentItem
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		own, err = s.content.ListByAuthors(egCtx, q.Kind, []int64{q.ViewerID}, since, s.window(q))
		if err != nil {
			return fmt.Errorf("list own items: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		others, err = s.content.ListRecent(egCtx, q.Kind, since, q.ViewerID, s.candidateLimit(q))
		if err != nil {
			return fmt.Errorf("list recent items: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	all := ranker.DeduplicateByID(append(append([]domain.ContentItem{}, own...), others...))
	if err := s.flattenComments(ctx, all); err != nil {
		return nil, err
	}

	ranked := make([]domain.RankedItem, 0, len(all))
	var candidates []domain.ContentItem
	for _, item := range all {
		if item.AuthorID == q.ViewerID {
			scores := s.scorer.Score(item, viewer)
			scores.Final = ranker.PinnedScore
			ranked = append(ranked, domain.RankedItem{Item: item, Scores: scores, Pinned: true})
			continue
		}
		candidates = append(candidates, item)
	}
	return append(ranked, s.scorer.Rank(candidates, viewer)...), nil
}

func (s *Service) unscored(ctx context.Context, items []domain.ContentItem) ([]domain.RankedItem, error) {
	items = ranker.DeduplicateByID(items)
	if err := s.flattenComments(ctx, items); err != nil {
		return nil, err
	}
	out := make([]domain.RankedItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.RankedItem{Item: item})
	}
	return out, nil
}

func (s *Service) viewerContext(ctx context.Context, viewerID int64) (domain.ViewerContext, error) {
	var (
		profile   domain.UserProfile
		following map[int64]struct{}
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := s.profiles.GetProfile(egCtx, viewerID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			profile = domain.UserProfile{ID: viewerID}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load viewer profile: %w", err)
		}
		profile = p
		return nil
	})
	eg.Go(func() error {
		var err error
		following, err = s.graph.OneHop(egCtx, viewerID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return domain.ViewerContext{}, err
	}
	viewer := domain.NewViewerContext(profile, nil)
	viewer.ViewerID = viewerID
	viewer.Following = following
	return viewer, nil
}

// flattenComments replaces each item's comment counter with the size of its whole thread.
func (s *Service) flattenComments(ctx context.Context, items []domain.ContentItem) error {
	if s.comments == nil || len(items) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	rows, err := s.comments.ListComments(ctx, ids)
	if err != nil {
		return fmt.Errorf("list comments: %w", err)
	}
	thread := comments.NewThread(rows)
	for i := range items {
		items[i].Counters.Comments = thread.CountForItem(items[i].ID)
	}
	return nil
}

func (s *Service) writeBack(ctx context.Context, page []domain.RankedItem) {
	if s.scores == nil {
		return
	}
	snapshot := make(map[int64]domain.ScoreBreakdown, len(page))
	for _, item := range page {
		if item.Pinned || item.Scores == (domain.ScoreBreakdown{}) {
			continue
		}
		snapshot[item.Item.ID] = item.Scores
	}
	if len(snapshot) == 0 {
		return
	}
	if err := s.scores.SaveScores(ctx, snapshot); err != nil {
		s.log.Warn().Err(err).Int("items", len(snapshot)).Msg("feed: score write-back failed")
	}
}

func paginate(items []domain.RankedItem, page, pageSize int) []domain.RankedItem {
	offset := (page - 1) * pageSize
	if offset < 0 || offset >= len(items) {
		return []domain.RankedItem{}
	}
	end := min(offset+pageSize, len(items))
	return items[offset:end]
}
