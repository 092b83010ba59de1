package suggestions

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/graph"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFollows map[int64][]int64

func (s stubFollows) ListFollowing(_ context.Context, userID int64) ([]int64, error) {
	return s[userID], nil
}

type failingFollows struct{}

func (failingFollows) ListFollowing(context.Context, int64) ([]int64, error) {
	return nil, errors.New("connection reset")
}

type stubProfiles struct {
	byID      map[int64]domain.UserProfile
	popular   []domain.UserProfile
	lastQuery domain.PopularQuery
}

func (s *stubProfiles) GetProfile(_ context.Context, id int64) (domain.UserProfile, error) {
	p, ok := s.byID[id]
	if !ok {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubProfiles) GetProfiles(_ context.Context, ids []int64) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProfiles) ListPopular(_ context.Context, q domain.PopularQuery) ([]domain.UserProfile, error) {
	s.lastQuery = q
	excluded := make(map[int64]bool, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = true
	}
	var out []domain.UserProfile
	for _, p := range s.popular {
		if !excluded[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubPrefs struct {
	prefs domain.Preferences
	err   error
}

func (s stubPrefs) Preferences(context.Context, int64) (domain.Preferences, error) {
	return s.prefs, s.err
}

func profile(id int64, followers, following int, loc *domain.Location) domain.UserProfile {
	return domain.UserProfile{
		ID: id, Username: "user", FollowersCount: followers, FollowingCount: following,
		LastActive: now, Location: loc, IsActive: true,
	}
}

func newTestService(follows domain.FollowRepo, profiles domain.ProfileRepo, prefs PreferenceSource) *Service {
	svc := NewService(graph.New(follows, 2), profiles, prefs, DefaultConfig(), zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestMutualCandidateOutranksPopularStranger(t *testing.T) {
	// B follows A, A follows X. Y is popular but unconnected.
	const a, b, x, y = 1, 2, 10, 20
	follows := stubFollows{b: {a}, a: {x}}
	profiles := &stubProfiles{
		byID: map[int64]domain.UserProfile{
			b: profile(b, 5, 1, &domain.Location{City: "Pokhara", District: "Kaski", Province: "Gandaki"}),
			x: profile(x, 10, 10, &domain.Location{City: "Baglung", District: "Baglung", Province: "Gandaki"}),
		},
		popular: []domain.UserProfile{
			profile(y, 1000, 500, &domain.Location{City: "Kathmandu", District: "Kathmandu", Province: "Bagmati"}),
			profile(x, 10, 10, nil),
		},
	}
	svc := newTestService(follows, profiles, nil)

	ranked, p, err := svc.rank(context.Background(), b)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(p.mutual) != 1 || len(p.popular) != 1 {
		t.Fatalf("expected one candidate per pool, got %d/%d", len(p.mutual), len(p.popular))
	}
	if len(ranked) != 2 || ranked[0].Profile.ID != x || ranked[1].Profile.ID != y {
		t.Fatalf("expected X before Y, got %+v", ranked)
	}
	if ranked[0].MutualConnections != 1 {
		t.Fatalf("expected one mutual connection, got %d", ranked[0].MutualConnections)
	}
	if ranked[0].Factors.Geo != 1 {
		t.Fatalf("expected province-level proximity, got %v", ranked[0].Factors.Geo)
	}
	if math.Abs(ranked[0].Score-5.35) > 1e-9 || math.Abs(ranked[1].Score-4.9) > 1e-9 {
		t.Fatalf("unexpected scores %v / %v", ranked[0].Score, ranked[1].Score)
	}

	res, err := svc.GetSuggestions(context.Background(), b, 10)
	if err != nil {
		t.Fatalf("GetSuggestions: %v", err)
	}
	if res.AlgorithmName != AlgorithmName || len(res.FactorList) != 6 {
		t.Fatalf("unexpected result header %+v", res)
	}
	if res.Metadata.MutualCandidates != 1 || res.Metadata.PopularCandidates != 1 ||
		res.Metadata.TotalCandidates != 2 || res.Metadata.Returned != 2 {
		t.Fatalf("unexpected metadata %+v", res.Metadata)
	}
	if !res.Metadata.GeneratedAt.Equal(now) {
		t.Fatalf("expected generatedAt %v, got %v", now, res.Metadata.GeneratedAt)
	}
	if res.Users[0].Profile.ID != x || res.Users[0].MutualConnections != 1 {
		t.Fatalf("unexpected first suggestion %+v", res.Users[0])
	}
}

func TestPopularQueryExcludesViewerFollowedAndMutual(t *testing.T) {
	follows := stubFollows{1: {2, 3}, 2: {4}, 3: {4, 5}}
	profiles := &stubProfiles{byID: map[int64]domain.UserProfile{
		4: profile(4, 1, 1, nil),
		5: profile(5, 1, 1, nil),
	}}
	svc := newTestService(follows, profiles, nil)

	if _, err := svc.GetSuggestions(context.Background(), 1, 10); err != nil {
		t.Fatalf("GetSuggestions: %v", err)
	}
	want := []int64{1, 2, 3, 4, 5}
	if len(profiles.lastQuery.ExcludeIDs) != len(want) {
		t.Fatalf("expected exclusions %v, got %v", want, profiles.lastQuery.ExcludeIDs)
	}
	for i, id := range want {
		if profiles.lastQuery.ExcludeIDs[i] != id {
			t.Fatalf("expected exclusions %v, got %v", want, profiles.lastQuery.ExcludeIDs)
		}
	}
	if !profiles.lastQuery.ActiveSince.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("unexpected activity cutoff %v", profiles.lastQuery.ActiveSince)
	}
	if profiles.lastQuery.Limit != 200 {
		t.Fatalf("expected popular cap 200, got %d", profiles.lastQuery.Limit)
	}
}

func TestSuggestionsNeverDuplicateOrIncludeSelf(t *testing.T) {
	follows := stubFollows{1: {2}, 2: {1, 3, 4}}
	profiles := &stubProfiles{
		byID: map[int64]domain.UserProfile{
			3: profile(3, 50, 5, nil),
			4: profile(4, 5, 5, nil),
		},
		// A store ignoring exclusions must not produce duplicates either.
		popular: []domain.UserProfile{profile(1, 9, 9, nil), profile(3, 50, 5, nil), profile(6, 70, 7, nil), profile(6, 70, 7, nil)},
	}
	svc := newTestService(follows, &ignoringProfiles{profiles}, nil)

	users, err := svc.Suggest(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	seen := map[int64]bool{}
	for _, u := range users {
		if u.Profile.ID == 1 || u.Profile.ID == 2 {
			t.Fatalf("suggested self or followed user %d", u.Profile.ID)
		}
		if seen[u.Profile.ID] {
			t.Fatalf("duplicate suggestion %d", u.Profile.ID)
		}
		seen[u.Profile.ID] = true
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(users))
	}
}

type ignoringProfiles struct{ *stubProfiles }

func (s *ignoringProfiles) ListPopular(_ context.Context, _ domain.PopularQuery) ([]domain.UserProfile, error) {
	return s.popular, nil
}

func TestInactiveAndBannedProfilesAreDropped(t *testing.T) {
	banned := profile(3, 10, 1, nil)
	banned.IsBanned = true
	inactive := profile(4, 10, 1, nil)
	inactive.IsActive = false
	stale := profile(5, 10, 1, nil)
	stale.LastActive = now.AddDate(0, 0, -45)

	follows := stubFollows{1: {2}, 2: {3, 4}}
	profiles := &stubProfiles{
		byID:    map[int64]domain.UserProfile{3: banned, 4: inactive},
		popular: []domain.UserProfile{stale, profile(6, 1, 1, nil)},
	}
	svc := newTestService(follows, profiles, nil)

	users, err := svc.Suggest(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(users) != 1 || users[0].Profile.ID != 6 {
		t.Fatalf("expected only user 6, got %+v", users)
	}
}

func TestEmptyGraphReturnsEmptyList(t *testing.T) {
	svc := newTestService(stubFollows{}, &stubProfiles{}, nil)
	res, err := svc.GetSuggestions(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("GetSuggestions: %v", err)
	}
	if len(res.Users) != 0 || res.Metadata.TotalCandidates != 0 {
		t.Fatalf("expected no suggestions, got %+v", res)
	}
}

func TestGraphFailureIsRankingUnavailable(t *testing.T) {
	svc := newTestService(failingFollows{}, &stubProfiles{}, nil)
	_, err := svc.GetSuggestions(context.Background(), 1, 10)
	if !errors.Is(err, domain.ErrRankingUnavailable) {
		t.Fatalf("expected ranking unavailable, got %v", err)
	}
	var typed *domain.RankingUnavailableError
	if !errors.As(err, &typed) || typed.Op != "suggestions" {
		t.Fatalf("expected suggestions op, got %v", err)
	}
}

func TestLimitIsClamped(t *testing.T) {
	popular := make([]domain.UserProfile, 0, 80)
	for i := int64(100); i < 180; i++ {
		popular = append(popular, profile(i, int(i), 10, nil))
	}
	svc := newTestService(stubFollows{}, &stubProfiles{popular: popular}, nil)

	users, err := svc.Suggest(context.Background(), 1, 500)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(users) != 50 {
		t.Fatalf("expected max limit 50, got %d", len(users))
	}
	users, err = svc.Suggest(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(users) != 10 {
		t.Fatalf("expected default limit 10, got %d", len(users))
	}
}

func TestSharedInterestsUsePreferenceTags(t *testing.T) {
	viewer := profile(1, 1, 1, nil)
	viewer.Interests = []string{"Trekking"}
	cand := profile(7, 1, 1, nil)
	cand.Interests = []string{"trekking", "Momo", "cricket"}
	profiles := &stubProfiles{
		byID:    map[int64]domain.UserProfile{1: viewer},
		popular: []domain.UserProfile{cand},
	}
	prefs := stubPrefs{prefs: domain.Preferences{Tags: []domain.TagCount{{Tag: "momo", Count: 3}}}}

	ranked, _, err := newTestService(stubFollows{}, profiles, prefs).rank(context.Background(), 1)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(ranked) != 1 || ranked[0].SharedInterests != 2 {
		t.Fatalf("expected 2 shared interests, got %+v", ranked)
	}

	ranked, _, err = newTestService(stubFollows{}, profiles, stubPrefs{err: errors.New("timeout")}).rank(context.Background(), 1)
	if err != nil {
		t.Fatalf("preference failure must not fail ranking: %v", err)
	}
	if ranked[0].SharedInterests != 1 {
		t.Fatalf("expected profile interests only, got %d", ranked[0].SharedInterests)
	}
}

func TestFactorFormulas(t *testing.T) {
	if MutualFactor(7) != 10 || MutualFactor(2) != 4 {
		t.Fatal("mutual factor must be min(10, 2m)")
	}
	if FollowersFactor(0) != 0 || FollowersFactor(1_000_000) != 10 {
		t.Fatal("follower factor must be clamped to [0, 10]")
	}
	if got := FollowersFactor(1); math.Abs(got-math.Log(2)*10) > 1e-9 {
		t.Fatalf("unexpected follower factor %v", got)
	}
	if RecencyFactor(now.AddDate(0, 0, -3), now) != 7 || RecencyFactor(now.AddDate(0, 0, -12), now) != 0 {
		t.Fatal("recency factor must be max(0, 10-days)")
	}
	if RecencyFactor(time.Time{}, now) != 0 {
		t.Fatal("unknown activity must score 0")
	}
	if EngagementRatioFactor(10, 0) != 0 || EngagementRatioFactor(100, 1) != 10 || EngagementRatioFactor(3, 2) != 3 {
		t.Fatal("engagement ratio must be min(10, 2*followers/following)")
	}
	loc := &domain.Location{City: "Pokhara", District: "Kaski", Province: "Gandaki"}
	if GeoFactor(loc, &domain.Location{City: "Pokhara"}) != 5 ||
		GeoFactor(loc, &domain.Location{District: "Kaski"}) != 3 ||
		GeoFactor(loc, &domain.Location{Province: "Gandaki"}) != 1 ||
		GeoFactor(loc, nil) != 0 {
		t.Fatal("unexpected geo factor")
	}
}

func TestMutualUserPastCapKeepsMutualCount(t *testing.T) {
	// 3 is reached through two friends, 4 through one; a cap of 1 leaves 4 to the popular pool.
	follows := stubFollows{1: {2, 5}, 2: {3, 4}, 5: {3}}
	profiles := &stubProfiles{
		byID:    map[int64]domain.UserProfile{3: profile(3, 10, 5, nil), 4: profile(4, 10, 5, nil)},
		popular: []domain.UserProfile{profile(4, 10, 5, nil)},
	}
	cfg := DefaultConfig()
	cfg.MutualCap = 1
	svc := NewService(graph.New(follows, 2), profiles, nil, cfg, zerolog.Nop())
	svc.now = func() time.Time { return now }

	ranked, _, err := svc.rank(context.Background(), 1)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	counts := map[int64]int{}
	for _, c := range ranked {
		counts[c.Profile.ID] = c.MutualConnections
	}
	if len(counts) != 2 || counts[3] != 2 || counts[4] != 1 {
		t.Fatalf("expected mutual counts {3:2 4:1}, got %v", counts)
	}
}
