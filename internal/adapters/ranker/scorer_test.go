package ranker

import (
	"math"
	"testing"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func TestEngagementExample(t *testing.T) {
	got := Engagement(domain.EngagementCounters{Likes: 5, Comments: 2, Shares: 0, Saves: 1, Views: 20})
	if !approx(got, 15) {
		t.Fatalf("expected engagement 15, got %v", got)
	}
}

func TestEngagementMonotonic(t *testing.T) {
	base := domain.EngagementCounters{Likes: 3, Comments: 3, Shares: 3, Saves: 3, Views: 3}
	bumps := map[string]func(c *domain.EngagementCounters){
		"likes":    func(c *domain.EngagementCounters) { c.Likes++ },
		"comments": func(c *domain.EngagementCounters) { c.Comments++ },
		"shares":   func(c *domain.EngagementCounters) { c.Shares++ },
		"saves":    func(c *domain.EngagementCounters) { c.Saves++ },
		"views":    func(c *domain.EngagementCounters) { c.Views++ },
	}
	for name, bump := range bumps {
		t.Run(name, func(t *testing.T) {
			next := base
			bump(&next)
			if Engagement(next) < Engagement(base) {
				t.Fatalf("engagement decreased after bumping %s", name)
			}
		})
	}
}

func TestLocality(t *testing.T) {
	viewer := &domain.Location{City: "Pokhara", District: "Kaski", Province: "Gandaki"}
	tests := []struct {
		name string
		item *domain.Location
		view *domain.Location
		want float64
	}{
		{"same city", &domain.Location{City: "Pokhara", District: "Kaski", Province: "Gandaki"}, viewer, 10},
		{"same district", &domain.Location{City: "Lekhnath", District: "Kaski", Province: "Gandaki"}, viewer, 5},
		{"same province", &domain.Location{City: "Baglung", District: "Baglung", Province: "Gandaki"}, viewer, 2},
		{"elsewhere", &domain.Location{City: "Kathmandu", District: "Kathmandu", Province: "Bagmati"}, viewer, 0},
		{"item without location", nil, viewer, 0},
		{"viewer without location", &domain.Location{City: "Pokhara"}, nil, 0},
		{"empty fields never match", &domain.Location{}, &domain.Location{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Locality(tt.item, tt.view); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLanguageAffinity(t *testing.T) {
	tests := []struct {
		pref domain.LanguagePreference
		lang domain.Language
		want float64
	}{
		{domain.PreferBoth, domain.LanguageMixed, 1},
		{domain.PreferBoth, "", 1},
		{domain.PreferNepali, domain.LanguageNepali, 1},
		{domain.PreferEnglish, domain.LanguageNepali, 0.5},
		{domain.PreferNepali, domain.LanguageMixed, 0.5},
		{"", domain.LanguageEnglish, 0.5},
	}
	for _, tt := range tests {
		if got := LanguageAffinity(tt.pref, tt.lang); got != tt.want {
			t.Fatalf("%s/%s: expected %v, got %v", tt.pref, tt.lang, tt.want, got)
		}
	}
}

func TestRelationshipSelfAsymmetry(t *testing.T) {
	viewer := domain.ViewerContext{ViewerID: 1, Following: map[int64]struct{}{2: {}}}
	if got := Relationship(domain.KindPost, 1, viewer); got != 0 {
		t.Fatalf("own post: expected 0, got %v", got)
	}
	if got := Relationship(domain.KindReel, 1, viewer); got != 2 {
		t.Fatalf("own reel: expected 2, got %v", got)
	}
	if got := Relationship(domain.KindPost, 2, viewer); got != 1 {
		t.Fatalf("followed author: expected 1, got %v", got)
	}
	if got := Relationship(domain.KindReel, 3, viewer); got != 0.3 {
		t.Fatalf("stranger: expected 0.3, got %v", got)
	}
}

func TestWeightNormalization(t *testing.T) {
	ones := domain.ScoreBreakdown{Engagement: 1, Locality: 1, Language: 1, Relationship: 1}
	if got := PostWeights().Final(ones); !approx(got, 1.0) {
		t.Fatalf("post weights: expected 1.0, got %v", got)
	}
	if got := ReelWeights().Final(ones); !approx(got, 1.01) {
		t.Fatalf("reel weights: expected 1.01, got %v", got)
	}
	reel := ReelWeights()
	if sum := reel.Engagement + reel.Locality + reel.Language + reel.Relationship; sum > 1+eps {
		t.Fatalf("reel score-bearing weights exceed 1: %v", sum)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewContentScorer()
	item := domain.ContentItem{
		ID: 10, AuthorID: 2, Kind: domain.KindReel, Language: domain.LanguageNepali,
		Location: &domain.Location{City: "Pokhara"},
		Counters: domain.EngagementCounters{Likes: 4, Comments: 1, Views: 50},
	}
	viewer := domain.ViewerContext{ViewerID: 1, Location: &domain.Location{City: "Pokhara"}, LanguagePreference: domain.PreferNepali}
	first := s.Score(item, viewer)
	for i := 0; i < 5; i++ {
		if got := s.Score(item, viewer); got != first {
			t.Fatalf("score changed between calls: %+v vs %+v", first, got)
		}
	}
	want := 0.25*(4+3+5) + 0.35*10 + 0.2*1 + 0.15*0.3 + 0.06
	if !approx(first.Final, want) {
		t.Fatalf("expected final %v, got %v", want, first.Final)
	}
}

func TestRankOrdersByScore(t *testing.T) {
	s := NewContentScorer()
	viewer := domain.ViewerContext{ViewerID: 1}
	items := []domain.ContentItem{
		{ID: 1, AuthorID: 5, Kind: domain.KindPost},
		{ID: 2, AuthorID: 5, Kind: domain.KindPost, Counters: domain.EngagementCounters{Likes: 10}},
		{ID: 3, AuthorID: 6, Kind: domain.KindPost},
	}
	ranked := s.Rank(items, viewer)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 items, got %d", len(ranked))
	}
	if ranked[0].Item.ID != 2 {
		t.Fatalf("expected the liked post first, got %d", ranked[0].Item.ID)
	}
	if ranked[1].Item.ID != 1 || ranked[2].Item.ID != 3 {
		t.Fatalf("expected ties to keep input order, got %d,%d", ranked[1].Item.ID, ranked[2].Item.ID)
	}
}

func TestDeduplicateByID(t *testing.T) {
	items := []domain.ContentItem{{ID: 1}, {ID: 1}, {ID: 2}}
	res := DeduplicateByID(items)
	if len(res) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res))
	}
}
