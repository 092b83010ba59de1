package stories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/cache"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubGraph map[int64][]int64

func (g stubGraph) OneHop(_ context.Context, userID int64) (map[int64]struct{}, error) {
	set := map[int64]struct{}{}
	for _, id := range g[userID] {
		set[id] = struct{}{}
	}
	return set, nil
}

type memStories struct {
	stories    []domain.Story
	views      map[int64][]int64
	viewLoads  int
	lastSince  time.Time
	lastAuthor []int64
	failViews  bool
}

func (m *memStories) ListActiveStories(_ context.Context, authorIDs []int64, since time.Time) ([]domain.Story, error) {
	m.lastSince, m.lastAuthor = since, authorIDs
	allowed := map[int64]bool{}
	for _, id := range authorIDs {
		allowed[id] = true
	}
	var out []domain.Story
	for _, st := range m.stories {
		if allowed[st.AuthorID] && st.CreatedAt.After(since) {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStories) ListViewedStoryIDs(_ context.Context, viewerID int64) ([]int64, error) {
	m.viewLoads++
	if m.failViews {
		return nil, errors.New("db down")
	}
	return m.views[viewerID], nil
}

func (m *memStories) AddStoryView(_ context.Context, viewerID, storyID int64) error {
	if m.views == nil {
		m.views = map[int64][]int64{}
	}
	m.views[viewerID] = append(m.views[viewerID], storyID)
	return nil
}

func newTestService(t *testing.T, repo *memStories, g stubGraph) *Service {
	t.Helper()
	viewed, err := cache.NewMemoryViewedStories(1024, time.Minute)
	require.NoError(t, err)
	t.Cleanup(viewed.Close)
	svc := NewService(repo, g, viewed, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func story(id, author int64, age time.Duration) domain.Story {
	return domain.Story{ID: id, AuthorID: author, CreatedAt: now.Add(-age), ExpiresAt: now.Add(ActiveWindow - age)}
}

func trayIDs(tray []domain.StoryTrayItem) []int64 {
	ids := make([]int64, 0, len(tray))
	for _, it := range tray {
		ids = append(ids, it.Story.ID)
	}
	return ids
}

func TestTrayOrdersOwnThenUnseenThenRecency(t *testing.T) {
	repo := &memStories{
		stories: []domain.Story{
			story(1, 2, 5*time.Hour),
			story(2, 3, 1*time.Hour),
			story(3, 1, 10*time.Hour),
			story(4, 2, 2*time.Hour),
			story(5, 9, 1*time.Hour),
			story(6, 2, 30*time.Hour),
		},
		views: map[int64][]int64{1: {4}},
	}
	svc := newTestService(t, repo, stubGraph{1: {2, 3}})

	tray, err := svc.Tray(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 2, 1, 4}, trayIDs(tray))
	require.True(t, tray[3].Seen)
	require.False(t, tray[1].Seen)
	require.Equal(t, now.Add(-ActiveWindow), repo.lastSince)
	require.Equal(t, []int64{1, 2, 3}, repo.lastAuthor)
}

func TestTrayLoadsViewedSetOnceUntilInvalidated(t *testing.T) {
	repo := &memStories{stories: []domain.Story{story(1, 2, time.Hour)}}
	svc := newTestService(t, repo, stubGraph{1: {2}})
	ctx := context.Background()

	_, err := svc.Tray(ctx, 1)
	require.NoError(t, err)
	tray, err := svc.Tray(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, repo.viewLoads)
	require.False(t, tray[0].Seen)

	require.NoError(t, svc.MarkViewed(ctx, 1, 1))
	tray, err = svc.Tray(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.viewLoads)
	require.True(t, tray[0].Seen)
}

func TestTrayEmptyWithoutStories(t *testing.T) {
	repo := &memStories{}
	svc := newTestService(t, repo, stubGraph{})

	tray, err := svc.Tray(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, tray)
	require.Zero(t, repo.viewLoads)
}

func TestTrayViewedLookupFailureIsTyped(t *testing.T) {
	repo := &memStories{stories: []domain.Story{story(1, 1, time.Hour)}, failViews: true}
	svc := newTestService(t, repo, stubGraph{})

	_, err := svc.Tray(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrRankingUnavailable)
}
