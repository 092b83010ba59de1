package domain

import "time"

// Location is a coarse administrative location of a user or content item.
type Location struct {
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Province string `json:"province,omitempty"`
}

// UserProfile holds the profile fields the ranking core reads.
type UserProfile struct {
	ID                 int64              `json:"id"`
	Username           string             `json:"username"`
	FullName           string             `json:"fullName,omitempty"`
	AvatarURL          string             `json:"avatarUrl,omitempty"`
	Location           *Location          `json:"location,omitempty"`
	LanguagePreference LanguagePreference `json:"languagePreference,omitempty"`
	Interests          []string           `json:"interests,omitempty"`
	FollowersCount     int                `json:"followersCount"`
	FollowingCount     int                `json:"followingCount"`
	LastActive         time.Time          `json:"lastActive"`
	IsVerified         bool               `json:"isVerified"`
	IsBanned           bool               `json:"-"`
	IsActive           bool               `json:"-"`
}

// Suggestible reports whether the profile may be offered as a suggestion.
func (p UserProfile) Suggestible() bool {
	return p.IsActive && !p.IsBanned
}

// EngagementCounters are the mutable counters of a content item.
type EngagementCounters struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
	Saves    int `json:"saves"`
	Views    int `json:"views"`
}

// ScoreBreakdown is the output of the content scorer.
type ScoreBreakdown struct {
	Engagement   float64 `json:"engagement"`
	Locality     float64 `json:"locality"`
	Language     float64 `json:"language"`
	Relationship float64 `json:"relationship"`
	Final        float64 `json:"final"`
}

// ContentItem is a post, reel or story as stored by the content layer.
type ContentItem struct {
	ID          int64              `json:"id"`
	AuthorID    int64              `json:"authorId"`
	Kind        ContentKind        `json:"kind"`
	CreatedAt   time.Time          `json:"createdAt"`
	ContentType ContentType        `json:"contentType,omitempty"`
	Language    Language           `json:"language,omitempty"`
	Location    *Location          `json:"location,omitempty"`
	Caption     string             `json:"caption,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Counters    EngagementCounters `json:"counters"`
	IsDeleted   bool               `json:"-"`
	IsArchived  bool               `json:"-"`
	// Scores is the last persisted snapshot; it is never read back as a ranking input.
	Scores ScoreBreakdown `json:"-"`
}

// ScoringSnapshot implements Scoreable.
func (c ContentItem) ScoringSnapshot() ContentSnapshot {
	return ContentSnapshot{
		Kind:       c.Kind,
		AuthorID:   c.AuthorID,
		Language:   c.Language,
		Location:   c.Location,
		Engagement: c.Counters,
	}
}

// ContentSnapshot is the read-only view of content the scorer needs.
type ContentSnapshot struct {
	Kind       ContentKind
	AuthorID   int64
	Language   Language
	Location   *Location
	Engagement EngagementCounters
}

// Scoreable is anything the content scorer can rank.
type Scoreable interface {
	ScoringSnapshot() ContentSnapshot
}

// ViewerContext describes who is looking at the feed.
type ViewerContext struct {
	ViewerID           int64
	Location           *Location
	LanguagePreference LanguagePreference
	Following          map[int64]struct{}
}

// Follows reports whether the viewer follows userID.
func (v ViewerContext) Follows(userID int64) bool {
	_, ok := v.Following[userID]
	return ok
}

// NewViewerContext builds a viewer context from a profile and its one-hop follows.
func NewViewerContext(profile UserProfile, following []int64) ViewerContext {
	set := make(map[int64]struct{}, len(following))
	for _, id := range following {
		set[id] = struct{}{}
	}
	return ViewerContext{
		ViewerID:           profile.ID,
		Location:           profile.Location,
		LanguagePreference: profile.LanguagePreference,
		Following:          set,
	}
}

// RankedItem is a content item placed in a feed page.
type RankedItem struct {
	Item   ContentItem    `json:"item"`
	Scores ScoreBreakdown `json:"scores"`
	Pinned bool           `json:"pinned,omitempty"`
}

// Follow is a directed relationship edge.
type Follow struct {
	FollowerID  int64
	FollowingID int64
	CreatedAt   time.Time
}

// Comment is one row of the flat comment table. Replies point at their parent.
type Comment struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"itemId"`
	ParentID  *int64    `json:"parentId,omitempty"`
	AuthorID  int64     `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Story is an ephemeral item shown in the story tray.
type Story struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"authorId"`
	MediaURL  string    `json:"mediaUrl"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StoryTrayItem marks a story as seen or not for a viewer.
type StoryTrayItem struct {
	Story Story `json:"story"`
	Seen  bool  `json:"seen"`
}

// Suggestion is a public suggestion entry. Scores never leave the engine.
type Suggestion struct {
	Profile           UserProfile `json:"profile"`
	MutualConnections int         `json:"mutualConnections"`
}

// SuggestionMetadata describes how a suggestion list was produced.
type SuggestionMetadata struct {
	MutualCandidates  int       `json:"mutualCandidates"`
	PopularCandidates int       `json:"popularCandidates"`
	TotalCandidates   int       `json:"totalCandidates"`
	Returned          int       `json:"returned"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// SuggestionsResult is returned to the API layer.
type SuggestionsResult struct {
	Users         []Suggestion       `json:"users"`
	AlgorithmName string             `json:"algorithmName"`
	FactorList    []string           `json:"factorList"`
	Metadata      SuggestionMetadata `json:"metadata"`
}
