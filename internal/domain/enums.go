package domain

import "fmt"

// InteractionKind is a kind of viewer-to-author interaction tracked by the interaction store.
type InteractionKind string

const (
	InteractionLike    InteractionKind = "like"
	InteractionComment InteractionKind = "comment"
	InteractionShare   InteractionKind = "share"
	InteractionSave    InteractionKind = "save"
	InteractionView    InteractionKind = "view"
)

// InteractionKinds lists every interaction kind in storage order.
func InteractionKinds() []InteractionKind {
	return []InteractionKind{InteractionLike, InteractionComment, InteractionShare, InteractionSave, InteractionView}
}

// Valid reports whether k is a known kind.
func (k InteractionKind) Valid() bool { return isOneOf(k, InteractionKinds()) }

// ParseInteractionKind converts raw input into an InteractionKind.
func ParseInteractionKind(raw string) (InteractionKind, error) {
	return parseEnum(raw, "interaction kind", InteractionKinds())
}

// ContentType is the media type of a content item.
type ContentType string

const (
	ContentImage ContentType = "image"
	ContentVideo ContentType = "video"
	ContentText  ContentType = "text"
)

// ContentTypes lists every content type.
func ContentTypes() []ContentType {
	return []ContentType{ContentImage, ContentVideo, ContentText}
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool { return isOneOf(t, ContentTypes()) }

// ParseContentType converts raw input into a ContentType.
func ParseContentType(raw string) (ContentType, error) {
	return parseEnum(raw, "content type", ContentTypes())
}

// Language is the language tag of a content item.
type Language string

const (
	LanguageNepali  Language = "nepali"
	LanguageEnglish Language = "english"
	LanguageMixed   Language = "mixed"
)

// Languages lists every content language.
func Languages() []Language {
	return []Language{LanguageNepali, LanguageEnglish, LanguageMixed}
}

// Valid reports whether l is a known language.
func (l Language) Valid() bool { return isOneOf(l, Languages()) }

// ParseLanguage converts raw input into a Language.
func ParseLanguage(raw string) (Language, error) {
	return parseEnum(raw, "language", Languages())
}

// LanguagePreference is the language a viewer wants to see.
type LanguagePreference string

const (
	PreferNepali  LanguagePreference = "nepali"
	PreferEnglish LanguagePreference = "english"
	PreferBoth    LanguagePreference = "both"
)

// LanguagePreferences lists every viewer language preference.
func LanguagePreferences() []LanguagePreference {
	return []LanguagePreference{PreferNepali, PreferEnglish, PreferBoth}
}

// Valid reports whether p is a known preference.
func (p LanguagePreference) Valid() bool { return isOneOf(p, LanguagePreferences()) }

// Matches reports whether content in language l satisfies the preference.
func (p LanguagePreference) Matches(l Language) bool {
	if p == PreferBoth {
		return true
	}
	return l != "" && string(p) == string(l)
}

// ContentKind separates posts, reels and stories.
type ContentKind string

const (
	KindPost  ContentKind = "post"
	KindReel  ContentKind = "reel"
	KindStory ContentKind = "story"
)

// ContentKinds lists every content kind.
func ContentKinds() []ContentKind {
	return []ContentKind{KindPost, KindReel, KindStory}
}

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool { return isOneOf(k, ContentKinds()) }

// ParseContentKind converts raw input into a ContentKind.
func ParseContentKind(raw string) (ContentKind, error) {
	return parseEnum(raw, "content kind", ContentKinds())
}

// FeedType selects how candidates are sourced and ordered.
type FeedType string

const (
	FeedFollowing FeedType = "following"
	FeedForYou    FeedType = "fyp"
	FeedExplore   FeedType = "explore"
	FeedNearby    FeedType = "nearby"
	FeedTrending  FeedType = "trending"
)

// FeedTypes lists every supported feed type.
func FeedTypes() []FeedType {
	return []FeedType{FeedFollowing, FeedForYou, FeedExplore, FeedNearby, FeedTrending}
}

// Valid reports whether t is a supported feed type.
func (t FeedType) Valid() bool { return isOneOf(t, FeedTypes()) }

func isOneOf[T ~string](v T, values []T) bool {
	for _, candidate := range values {
		if v == candidate {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](raw, name string, values []T) (T, error) {
	v := T(raw)
	if !isOneOf(v, values) {
		return "", fmt.Errorf("unknown %s %q", name, raw)
	}
	return v, nil
}
