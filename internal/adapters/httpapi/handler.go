// Package httpapi exposes feeds, suggestions, interactions and the story tray over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/validation"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/feed"
)

// ViewerHeader carries the authenticated user id set by the gateway.
const ViewerHeader = "X-Viewer-ID"

// FeedAssembler builds feed pages.
type FeedAssembler interface {
	Assemble(ctx context.Context, q feed.Query) ([]domain.RankedItem, error)
}

// InteractionPublisher hands interaction events to the store pipeline.
type InteractionPublisher interface {
	Publish(ctx context.Context, event domain.InteractionEvent)
}

// PreferenceReader returns aggregated viewer preferences.
type PreferenceReader interface {
	Preferences(ctx context.Context, viewerID int64) (domain.Preferences, error)
}

// StoryTray serves the story tray.
type StoryTray interface {
	Tray(ctx context.Context, viewerID int64) ([]domain.StoryTrayItem, error)
	MarkViewed(ctx context.Context, viewerID, storyID int64) error
}

// Handler holds the API dependencies.
type Handler struct {
	Feeds        FeedAssembler
	Suggestions  domain.SuggestionService
	Interactions InteractionPublisher
	Preferences  PreferenceReader
	Stories      StoryTray
	Log          zerolog.Logger
}

type ctxKey struct{}

// Mount registers the API routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(viewerMiddleware)
		api.Get("/feed", h.getFeed)
		api.Get("/suggestions", h.getSuggestions)
		api.Post("/interactions", h.postInteraction)
		api.Get("/preferences", h.getPreferences)
		api.Get("/stories/tray", h.getStoryTray)
		api.Post("/stories/{id}/views", h.postStoryView)
	})
}

func viewerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(ViewerHeader)), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "missing or invalid "+ViewerHeader)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func viewerID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKey{}).(int64)
	return id
}

type feedResponse struct {
	Type     domain.FeedType     `json:"type"`
	Kind     domain.ContentKind  `json:"kind"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
	Items    []domain.RankedItem `json:"items"`
}

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	feedType := domain.FeedType(strings.ToLower(q.Get("type")))
	if feedType == "" {
		feedType = domain.FeedForYou
	}
	kind := domain.KindPost
	if raw := q.Get("kind"); raw != "" {
		parsed, err := domain.ParseContentKind(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = parsed
	}
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	pageSize, err := intParam(q.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	items, err := h.Feeds.Assemble(r.Context(), feed.Query{
		ViewerID: viewerID(r), Kind: kind, Type: feedType, Page: page, PageSize: pageSize,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.RankedItem{}
	}
	writeJSON(w, http.StatusOK, feedResponse{Type: feedType, Kind: kind, Page: page, PageSize: pageSize, Items: items})
}

func (h *Handler) getSuggestions(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	res, err := h.Suggestions.GetSuggestions(r.Context(), viewerID(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Users == nil {
		res.Users = []domain.Suggestion{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) postInteraction(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var event domain.InteractionEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	event.ViewerID = viewerID(r)
	event.Attempt = 0
	if err := validation.Struct(event); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	event.ID = uuid.NewString()
	h.Interactions.Publish(r.Context(), event)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "eventId": event.ID})
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Preferences.Preferences(r.Context(), viewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) getStoryTray(w http.ResponseWriter, r *http.Request) {
	tray, err := h.Stories.Tray(r.Context(), viewerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stories": tray})
}

func (h *Handler) postStoryView(w http.ResponseWriter, r *http.Request) {
	storyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || storyID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid story id")
		return
	}
	if err := h.Stories.MarkViewed(r.Context(), viewerID(r), storyID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRankingUnavailable):
		h.Log.Warn().Err(err).Str("path", r.URL.Path).Msg("api: ranking unavailable")
		writeError(w, http.StatusServiceUnavailable, "ranking temporarily unavailable")
	case errors.Is(err, domain.ErrInvalidInteraction):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error().Err(err).Str("path", r.URL.Path).Msg("api: request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errors.New("not a positive integer")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
