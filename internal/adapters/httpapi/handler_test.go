package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/feed"
)

type stubFeeds struct {
	last  feed.Query
	items []domain.RankedItem
	err   error
}

func (s *stubFeeds) Assemble(_ context.Context, q feed.Query) ([]domain.RankedItem, error) {
	s.last = q
	return s.items, s.err
}

type stubSuggestions struct {
	res domain.SuggestionsResult
	err error
}

func (s stubSuggestions) GetSuggestions(context.Context, int64, int) (domain.SuggestionsResult, error) {
	return s.res, s.err
}

type recordingPublisher struct{ events []domain.InteractionEvent }

func (p *recordingPublisher) Publish(_ context.Context, event domain.InteractionEvent) {
	p.events = append(p.events, event)
}

type stubPrefs struct{}

func (stubPrefs) Preferences(_ context.Context, viewerID int64) (domain.Preferences, error) {
	return domain.Preferences{ViewerID: viewerID, TotalInteractions: 3}, nil
}

type stubStories struct{ viewed []int64 }

func (s *stubStories) Tray(context.Context, int64) ([]domain.StoryTrayItem, error) {
	return []domain.StoryTrayItem{{Story: domain.Story{ID: 1}}}, nil
}

func (s *stubStories) MarkViewed(_ context.Context, _, storyID int64) error {
	s.viewed = append(s.viewed, storyID)
	return nil
}

type fixture struct {
	router    chi.Router
	feeds     *stubFeeds
	publisher *recordingPublisher
	stories   *stubStories
}

func newFixture(sugg stubSuggestions) fixture {
	f := fixture{feeds: &stubFeeds{}, publisher: &recordingPublisher{}, stories: &stubStories{}}
	h := &Handler{
		Feeds:        f.feeds,
		Suggestions:  sugg,
		Interactions: f.publisher,
		Preferences:  stubPrefs{},
		Stories:      f.stories,
		Log:          zerolog.Nop(),
	}
	r := chi.NewRouter()
	h.Mount(r)
	f.router = r
	return f
}

func (f fixture) do(method, target, body string, viewer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if viewer != "" {
		req.Header.Set(ViewerHeader, viewer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestViewerHeaderRequired(t *testing.T) {
	f := newFixture(stubSuggestions{})
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/feed", "", "").Code)
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/feed", "", "abc").Code)
}

func TestGetFeedParsesQuery(t *testing.T) {
	f := newFixture(stubSuggestions{})
	f.feeds.items = []domain.RankedItem{{Item: domain.ContentItem{ID: 9}}}

	rec := f.do(http.MethodGet, "/api/v1/feed?type=explore&kind=reel&page=2&limit=5", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, feed.Query{ViewerID: 7, Kind: domain.KindReel, Type: domain.FeedExplore, Page: 2, PageSize: 5}, f.feeds.last)

	var body feedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, int64(9), body.Items[0].Item.ID)
}

func TestGetFeedDefaultsAndValidation(t *testing.T) {
	f := newFixture(stubSuggestions{})

	rec := f.do(http.MethodGet, "/api/v1/feed", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.FeedForYou, f.feeds.last.Type)
	require.Equal(t, domain.KindPost, f.feeds.last.Kind)
	require.Contains(t, rec.Body.String(), `"items":[]`)

	require.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/feed?kind=poll", "", "7").Code)
	require.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/feed?page=0", "", "7").Code)
}

func TestRankingUnavailableMapsTo503(t *testing.T) {
	f := newFixture(stubSuggestions{err: domain.Unavailable("suggestions", errors.New("db down"))})
	f.feeds.err = domain.Unavailable("feed", errors.New("db down"))

	require.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/api/v1/feed", "", "7").Code)
	require.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/api/v1/suggestions", "", "7").Code)
}

func TestGetSuggestions(t *testing.T) {
	f := newFixture(stubSuggestions{res: domain.SuggestionsResult{
		AlgorithmName: "rich-get-richer",
		Users:         []domain.Suggestion{{Profile: domain.UserProfile{ID: 3, Username: "x"}, MutualConnections: 1}},
	}})

	rec := f.do(http.MethodGet, "/api/v1/suggestions?limit=5", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.SuggestionsResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "rich-get-richer", body.AlgorithmName)
	require.Equal(t, 1, body.Users[0].MutualConnections)
	require.NotContains(t, rec.Body.String(), "score")
}

func TestPostInteractionAccepted(t *testing.T) {
	f := newFixture(stubSuggestions{})

	rec := f.do(http.MethodPost, "/api/v1/interactions", `{"viewer_id": 99, "author_id": 2, "kind": "like", "tags": ["Momo"]}`, "7")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	require.Equal(t, int64(7), ev.ViewerID)
	require.Equal(t, domain.InteractionLike, ev.Kind)
	require.NotEmpty(t, ev.ID)
	require.Contains(t, rec.Body.String(), ev.ID)
}

func TestPostInteractionRejectsInvalid(t *testing.T) {
	f := newFixture(stubSuggestions{})

	rec := f.do(http.MethodPost, "/api/v1/interactions", `{"author_id": 2, "kind": "poke"}`, "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Kind")

	rec = f.do(http.MethodPost, "/api/v1/interactions", `{`, "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.publisher.events)
}

func TestPreferencesAndStories(t *testing.T) {
	f := newFixture(stubSuggestions{})

	rec := f.do(http.MethodGet, "/api/v1/preferences", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"viewerId":7`)

	rec = f.do(http.MethodGet, "/api/v1/stories/tray", "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"stories"`)

	require.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/v1/stories/42/views", "", "7").Code)
	require.Equal(t, []int64{42}, f.stories.viewed)
	require.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/v1/stories/x/views", "", "7").Code)
}
