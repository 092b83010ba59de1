package stories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// ActiveWindow is how long a story stays in the tray.
const ActiveWindow = 24 * time.Hour

// Graph resolves who the viewer follows.
type Graph interface {
	OneHop(ctx context.Context, userID int64) (map[int64]struct{}, error)
}

// Service builds the story tray and records views.
type Service struct {
	stories domain.StoryRepo
	graph   Graph
	viewed  domain.ViewedStoriesCache
	log     zerolog.Logger
	now     func() time.Time
}

// NewService wires the tray. The viewed-stories cache is injected so tests and deployments pick its backing store.
func NewService(stories domain.StoryRepo, g Graph, viewed domain.ViewedStoriesCache, logger zerolog.Logger) *Service {
	return &Service{stories: stories, graph: g, viewed: viewed, log: logger, now: time.Now}
}

// Tray returns active stories of the viewer and followed users.
// Own stories come first, then unseen ones, newest first within each group.
func (s *Service) Tray(ctx context.Context, viewerID int64) ([]domain.StoryTrayItem, error) {
	following, err := s.graph.OneHop(ctx, viewerID)
	if err != nil {
		metrics.IncRankingUnavailable("stories")
		return nil, domain.Unavailable("stories", err)
	}
	authors := make([]int64, 0, len(following)+1)
	authors = append(authors, viewerID)
	for id := range following {
		authors = append(authors, id)
	}
	sort.Slice(authors[1:], func(i, j int) bool { return authors[1+i] < authors[1+j] })

	active, err := s.stories.ListActiveStories(ctx, authors, s.now().Add(-ActiveWindow))
	if err != nil {
		metrics.IncRankingUnavailable("stories")
		return nil, domain.Unavailable("stories", fmt.Errorf("list active stories: %w", err))
	}
	if len(active) == 0 {
		return []domain.StoryTrayItem{}, nil
	}

	viewed, err := s.viewedSet(ctx, viewerID)
	if err != nil {
		metrics.IncRankingUnavailable("stories")
		return nil, domain.Unavailable("stories", err)
	}

	tray := make([]domain.StoryTrayItem, 0, len(active))
	for _, st := range active {
		_, seen := viewed[st.ID]
		tray = append(tray, domain.StoryTrayItem{Story: st, Seen: seen})
	}
	sort.SliceStable(tray, func(i, j int) bool {
		a, b := tray[i], tray[j]
		aOwn, bOwn := a.Story.AuthorID == viewerID, b.Story.AuthorID == viewerID
		if aOwn != bOwn {
			return aOwn
		}
		if a.Seen != b.Seen {
			return !a.Seen
		}
		return a.Story.CreatedAt.After(b.Story.CreatedAt)
	})
	return tray, nil
}

// MarkViewed records a view and invalidates the cached set.
func (s *Service) MarkViewed(ctx context.Context, viewerID, storyID int64) error {
	if err := s.stories.AddStoryView(ctx, viewerID, storyID); err != nil {
		return fmt.Errorf("add story view: %w", err)
	}
	if err := s.viewed.Clear(ctx, viewerID); err != nil {
		s.log.Warn().Err(err).Int64("viewer", viewerID).Msg("stories: clear viewed cache failed")
	}
	return nil
}

// viewedSet reads through the cache. Cache failures fall back to the store.
func (s *Service) viewedSet(ctx context.Context, viewerID int64) (map[int64]struct{}, error) {
	set, ok, err := s.viewed.Get(ctx, viewerID)
	if err != nil {
		s.log.Warn().Err(err).Int64("viewer", viewerID).Msg("stories: viewed cache read failed")
	}
	if err == nil && ok {
		metrics.IncViewedStoriesCache(true)
		return set, nil
	}
	metrics.IncViewedStoriesCache(false)

	ids, err := s.stories.ListViewedStoryIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list viewed stories: %w", err)
	}
	if err := s.viewed.Set(ctx, viewerID, ids); err != nil {
		s.log.Warn().Err(err).Int64("viewer", viewerID).Msg("stories: viewed cache write failed")
	}
	set = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
