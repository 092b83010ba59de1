package domain

import (
	"strings"
	"time"
)

// KindCounter is the counter of one interaction kind.
type KindCounter struct {
	Count  int64     `json:"count"`
	LastAt time.Time `json:"lastAt"`
}

// TagCounter counts interactions carrying a tag.
type TagCounter struct {
	Tag    string    `json:"tag"`
	Count  int64     `json:"count"`
	LastAt time.Time `json:"lastAt"`
}

// InteractionRecord aggregates everything one viewer did with one author's content.
type InteractionRecord struct {
	ViewerID          int64
	AuthorID          int64
	Kinds             map[InteractionKind]KindCounter
	ContentTypes      map[ContentType]int64
	Languages         map[Language]int64
	Tags              []TagCounter
	TotalInteractions int64
	LastInteraction   time.Time
}

// NewInteractionRecord returns an empty record for the pair.
func NewInteractionRecord(viewerID, authorID int64) InteractionRecord {
	return InteractionRecord{
		ViewerID:     viewerID,
		AuthorID:     authorID,
		Kinds:        make(map[InteractionKind]KindCounter, len(InteractionKinds())),
		ContentTypes: make(map[ContentType]int64, len(ContentTypes())),
		Languages:    make(map[Language]int64, len(Languages())),
	}
}

// Counter returns the counter for kind, zero if the pair never interacted that way.
func (r InteractionRecord) Counter(kind InteractionKind) KindCounter {
	return r.Kinds[kind]
}

// Apply folds one event into the record in place.
func (r *InteractionRecord) Apply(event InteractionEvent) {
	if r.Kinds == nil {
		*r = NewInteractionRecord(event.ViewerID, event.AuthorID)
	}
	at := event.OccurredAt
	c := r.Kinds[event.Kind]
	c.Count++
	if at.After(c.LastAt) {
		c.LastAt = at
	}
	r.Kinds[event.Kind] = c

	if event.ContentType.Valid() {
		r.ContentTypes[event.ContentType]++
	}
	if event.Language.Valid() {
		r.Languages[event.Language]++
	}
	for _, tag := range NormalizeTags(event.Tags) {
		found := false
		for i := range r.Tags {
			if r.Tags[i].Tag == tag {
				r.Tags[i].Count++
				if at.After(r.Tags[i].LastAt) {
					r.Tags[i].LastAt = at
				}
				found = true
				break
			}
		}
		if !found {
			r.Tags = append(r.Tags, TagCounter{Tag: tag, Count: 1, LastAt: at})
		}
	}

	r.TotalInteractions++
	if at.After(r.LastInteraction) {
		r.LastInteraction = at
	}
}

// NormalizeTags lowercases, trims and deduplicates tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// TagCount is one entry of a ranked tag list.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// Preferences is the aggregated interaction profile of a viewer.
type Preferences struct {
	ViewerID          int64                 `json:"viewerId"`
	ContentTypes      map[ContentType]int64 `json:"contentTypes"`
	Languages         map[Language]int64    `json:"languages"`
	Tags              []TagCount            `json:"tags"`
	TotalInteractions int64                 `json:"totalInteractions"`
}

// TopTags returns at most n tag names, best first.
func (p Preferences) TopTags(n int) []string {
	if n > len(p.Tags) {
		n = len(p.Tags)
	}
	out := make([]string, 0, n)
	for _, t := range p.Tags[:n] {
		out = append(out, t.Tag)
	}
	return out
}
