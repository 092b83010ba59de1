package ranker

import (
	"sort"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

// PinnedScore is above any score the weights can produce. Own items get it in fyp/explore.
const PinnedScore = 1e9

// Weights combine sub-scores into a final score.
type Weights struct {
	Engagement   float64
	Locality     float64
	Language     float64
	Relationship float64
	// Bonus is a constant added to every item of the kind.
	Bonus float64
}

// PostWeights returns the post weight set.
func PostWeights() Weights {
	return Weights{Engagement: 0.3, Locality: 0.4, Language: 0.2, Relationship: 0.1}
}

// ReelWeights returns the reel weight set, including the fixed reel bonus.
func ReelWeights() Weights {
	return Weights{Engagement: 0.25, Locality: 0.35, Language: 0.2, Relationship: 0.15, Bonus: 0.05 * 1.2}
}

// Final applies the weights to a breakdown.
func (w Weights) Final(b domain.ScoreBreakdown) float64 {
	return w.Engagement*b.Engagement +
		w.Locality*b.Locality +
		w.Language*b.Language +
		w.Relationship*b.Relationship +
		w.Bonus
}

// ContentScorer scores content for a viewer. It is safe for concurrent use.
type ContentScorer struct {
	post Weights
	reel Weights
}

// NewContentScorer creates a scorer with the default weight sets.
func NewContentScorer() *ContentScorer {
	return &ContentScorer{post: PostWeights(), reel: ReelWeights()}
}

// WeightsFor returns the weight set used for kind. Stories share post weights.
func (s *ContentScorer) WeightsFor(kind domain.ContentKind) Weights {
	if kind == domain.KindReel {
		return s.reel
	}
	return s.post
}

// Score computes every sub-score and the final score of item.
func (s *ContentScorer) Score(item domain.Scoreable, viewer domain.ViewerContext) domain.ScoreBreakdown {
	snap := item.ScoringSnapshot()
	b := domain.ScoreBreakdown{
		Engagement:   Engagement(snap.Engagement),
		Locality:     Locality(snap.Location, viewer.Location),
		Language:     LanguageAffinity(viewer.LanguagePreference, snap.Language),
		Relationship: Relationship(snap.Kind, snap.AuthorID, viewer),
	}
	b.Final = s.WeightsFor(snap.Kind).Final(b)
	return b
}

// Rank scores items and orders them by final score, keeping input order on ties.
func (s *ContentScorer) Rank(items []domain.ContentItem, viewer domain.ViewerContext) []domain.RankedItem {
	ranked := make([]domain.RankedItem, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, domain.RankedItem{Item: item, Scores: s.Score(item, viewer)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Scores.Final > ranked[j].Scores.Final })
	return ranked
}

// Engagement weighs raw counters. Comments must already include nested replies.
func Engagement(c domain.EngagementCounters) float64 {
	return float64(c.Likes)*1 +
		float64(c.Comments)*3 +
		float64(c.Shares)*5 +
		float64(c.Saves)*2 +
		float64(c.Views)*0.1
}

// Locality is 10 for the same city, 5 for the same district, 2 for the same province.
func Locality(item, viewer *domain.Location) float64 {
	if item == nil || viewer == nil {
		return 0
	}
	switch {
	case sameNonEmpty(item.City, viewer.City):
		return 10
	case sameNonEmpty(item.District, viewer.District):
		return 5
	case sameNonEmpty(item.Province, viewer.Province):
		return 2
	default:
		return 0
	}
}

// LanguageAffinity is 1 for a match or a "both" preference and 0.5 otherwise.
func LanguageAffinity(pref domain.LanguagePreference, lang domain.Language) float64 {
	if pref.Matches(lang) {
		return 1
	}
	return 0.5
}

// Relationship scores the author's relation to the viewer.
// Own reels score 2 while own posts score 0.
func Relationship(kind domain.ContentKind, authorID int64, viewer domain.ViewerContext) float64 {
	switch {
	case authorID == viewer.ViewerID:
		if kind == domain.KindReel {
			return 2
		}
		return 0
	case viewer.Follows(authorID):
		return 1
	default:
		return 0.3
	}
}

// DeduplicateByID drops repeated items, keeping the first occurrence.
func DeduplicateByID(items []domain.ContentItem) []domain.ContentItem {
	seen := make(map[int64]struct{}, len(items))
	out := make([]domain.ContentItem, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func sameNonEmpty(a, b string) bool {
	return a != "" && a == b
}
