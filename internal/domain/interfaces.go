package domain

import (
	"context"
	"time"
)

// ContentRepo reads content items. Deleted and archived items are never returned.
type ContentRepo interface {
	// ListByAuthors returns items of the given authors, newest first.
	ListByAuthors(ctx context.Context, kind ContentKind, authorIDs []int64, since time.Time, limit int) ([]ContentItem, error)
	// ListRecent returns items created after since, excluding one author, newest first.
	ListRecent(ctx context.Context, kind ContentKind, since time.Time, excludeAuthorID int64, limit int) ([]ContentItem, error)
	// ListByCity returns items located in city, newest first.
	ListByCity(ctx context.Context, kind ContentKind, city string, limit int) ([]ContentItem, error)
	// ListTrending returns items created after since ordered by likes, then recency.
	ListTrending(ctx context.Context, kind ContentKind, since time.Time, limit int) ([]ContentItem, error)
}

// ScoreWriter persists score snapshots. Written values are a cache only.
type ScoreWriter interface {
	SaveScores(ctx context.Context, scores map[int64]ScoreBreakdown) error
}

// FollowRepo reads the following graph.
type FollowRepo interface {
	ListFollowing(ctx context.Context, userID int64) ([]int64, error)
}

// PopularQuery filters the popular-candidate pool.
type PopularQuery struct {
	ExcludeIDs  []int64
	ActiveSince time.Time
	Limit       int
}

// ProfileRepo reads user profiles.
type ProfileRepo interface {
	GetProfile(ctx context.Context, userID int64) (UserProfile, error)
	GetProfiles(ctx context.Context, userIDs []int64) ([]UserProfile, error)
	// ListPopular returns active, unbanned users ordered by follower count.
	ListPopular(ctx context.Context, q PopularQuery) ([]UserProfile, error)
}

// InteractionRepo persists interaction records.
type InteractionRepo interface {
	// UpsertInteraction atomically creates or increments the record of the event's pair.
	UpsertInteraction(ctx context.Context, event InteractionEvent) error
	GetInteraction(ctx context.Context, viewerID, authorID int64) (InteractionRecord, error)
	ListInteractionsByViewer(ctx context.Context, viewerID int64) ([]InteractionRecord, error)
}

// CommentRepo reads the flat comment table.
type CommentRepo interface {
	ListComments(ctx context.Context, itemIDs []int64) ([]Comment, error)
}

// StoryRepo reads stories and story views.
type StoryRepo interface {
	ListActiveStories(ctx context.Context, authorIDs []int64, since time.Time) ([]Story, error)
	ListViewedStoryIDs(ctx context.Context, viewerID int64) ([]int64, error)
	AddStoryView(ctx context.Context, viewerID, storyID int64) error
}

// ViewedStoriesCache keeps the set of stories a user already viewed.
type ViewedStoriesCache interface {
	// Get returns the cached set; ok is false on a miss.
	Get(ctx context.Context, userID int64) (viewed map[int64]struct{}, ok bool, err error)
	// Set replaces the cached set.
	Set(ctx context.Context, userID int64, storyIDs []int64) error
	Clear(ctx context.Context, userID int64) error
}

// FeedService builds ranked feed pages.
type FeedService interface {
	GetFeed(ctx context.Context, viewerID int64, feedType FeedType, page, pageSize int) ([]RankedItem, error)
}

// SuggestionService ranks people the viewer may know.
type SuggestionService interface {
	GetSuggestions(ctx context.Context, viewerID int64, limit int) (SuggestionsResult, error)
}

// InteractionRecorder updates the interaction store.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, event InteractionEvent) error
}
