package suggestions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
	"github.com/jinesh-basnet/Naaya-sub000/internal/usecase/graph"
)

// AlgorithmName identifies the ranking strategy in responses.
const AlgorithmName = "rich-get-richer"

// Factor names in weight-table order.
const (
	FactorMutual          = "mutual_connections"
	FactorFollowers       = "follower_count"
	FactorRecency         = "recent_activity"
	FactorEngagementRatio = "engagement_ratio"
	FactorSharedInterests = "shared_interests"
	FactorGeo             = "geographic_proximity"
)

// Factor weights. They sum to 1.
const (
	weightMutual          = 0.30
	weightFollowers       = 0.30
	weightRecency         = 0.15
	weightEngagementRatio = 0.10
	weightSharedInterests = 0.10
	weightGeo             = 0.05
)

// Config bounds candidate pools.
type Config struct {
	MutualCap      int
	PopularCap     int
	ActiveDays     int
	DefaultLimit   int
	MaxLimit       int
	PreferenceTags int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{MutualCap: 100, PopularCap: 200, ActiveDays: 30, DefaultLimit: 10, MaxLimit: 50, PreferenceTags: 10}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MutualCap <= 0 {
		c.MutualCap = d.MutualCap
	}
	if c.PopularCap <= 0 {
		c.PopularCap = d.PopularCap
	}
	if c.ActiveDays <= 0 {
		c.ActiveDays = d.ActiveDays
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}
	if c.DefaultLimit <= 0 || c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = min(d.DefaultLimit, c.MaxLimit)
	}
	if c.PreferenceTags < 0 {
		c.PreferenceTags = 0
	}
	return c
}

// Graph is the part of the relationship graph suggestions need.
type Graph interface {
	OneHop(ctx context.Context, userID int64) (map[int64]struct{}, error)
	MutualFrequency(ctx context.Context, userID int64) (map[int64]int, error)
}

// PreferenceSource exposes interaction-derived viewer preferences.
type PreferenceSource interface {
	Preferences(ctx context.Context, viewerID int64) (domain.Preferences, error)
}

// Factors are the per-candidate sub-scores.
type Factors struct {
	Mutual          float64
	Followers       float64
	Recency         float64
	EngagementRatio float64
	SharedInterests float64
	Geo             float64
}

// Weighted combines the factors with the weight table.
func (f Factors) Weighted() float64 {
	return weightMutual*f.Mutual +
		weightFollowers*f.Followers +
		weightRecency*f.Recency +
		weightEngagementRatio*f.EngagementRatio +
		weightSharedInterests*f.SharedInterests +
		weightGeo*f.Geo
}

// Candidate is a scored profile. Scores are stripped before results are returned.
type Candidate struct {
	Profile           domain.UserProfile
	MutualConnections int
	SharedInterests   int
	Factors           Factors
	Score             float64
	Reasons           []string
}

type pools struct {
	mutual  []Candidate
	popular []Candidate
}

// Service ranks people the viewer may know.
type Service struct {
	graph    Graph
	profiles domain.ProfileRepo
	prefs    PreferenceSource
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

var _ domain.SuggestionService = (*Service)(nil)

// NewService creates the suggestion engine. prefs may be nil.
func NewService(g Graph, profiles domain.ProfileRepo, prefs PreferenceSource, cfg Config, logger zerolog.Logger) *Service {
	return &Service{graph: g, profiles: profiles, prefs: prefs, cfg: cfg.withDefaults(), log: logger, now: time.Now}
}

// Suggest returns ranked profiles with their mutual-connection counts.
func (s *Service) Suggest(ctx context.Context, viewerID int64, limit int) ([]domain.Suggestion, error) {
	res, err := s.GetSuggestions(ctx, viewerID, limit)
	if err != nil {
		return nil, err
	}
	return res.Users, nil
}

// GetSuggestions ranks candidates and strips scores from the result.
func (s *Service) GetSuggestions(ctx context.Context, viewerID int64, limit int) (domain.SuggestionsResult, error) {
	start := s.now()
	limit = s.clampLimit(limit)

	ranked, p, err := s.rank(ctx, viewerID)
	if err != nil {
		metrics.IncRankingUnavailable("suggestions")
		s.log.Error().Err(err).Int64("viewer", viewerID).Msg("suggestions: ranking failed")
		return domain.SuggestionsResult{}, domain.Unavailable("suggestions", err)
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	users := make([]domain.Suggestion, 0, len(ranked))
	for _, c := range ranked {
		users = append(users, domain.Suggestion{Profile: c.Profile, MutualConnections: c.MutualConnections})
	}

	metrics.ObserveSuggestionPools(len(p.mutual), len(p.popular))
	metrics.SuggestionBuildSeconds.Observe(time.Since(start).Seconds())

	return domain.SuggestionsResult{
		Users:         users,
		AlgorithmName: AlgorithmName,
		FactorList:    FactorList(),
		Metadata: domain.SuggestionMetadata{
			MutualCandidates:  len(p.mutual),
			PopularCandidates: len(p.popular),
			TotalCandidates:   len(p.mutual) + len(p.popular),
			Returned:          len(users),
			GeneratedAt:       start.UTC(),
		},
	}, nil
}

// FactorList names the signals used by the engine.
func FactorList() []string {
	return []string{FactorMutual, FactorFollowers, FactorRecency, FactorEngagementRatio, FactorSharedInterests, FactorGeo}
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	return min(limit, s.cfg.MaxLimit)
}

// rank builds both pools, scores every candidate and sorts them stably.
func (s *Service) rank(ctx context.Context, viewerID int64) ([]Candidate, pools, error) {
	var (
		viewer    domain.UserProfile
		following map[int64]struct{}
		mutual    map[int64]int
		prefs     domain.Preferences
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := s.profiles.GetProfile(egCtx, viewerID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			viewer = domain.UserProfile{ID: viewerID}
			return nil
		}
		if err != nil {
			return fmt.Errorf("load viewer profile: %w", err)
		}
		viewer = p
		return nil
	})
	eg.Go(func() error {
		var err error
		following, err = s.graph.OneHop(egCtx, viewerID)
		return err
	})
	eg.Go(func() error {
		var err error
		mutual, err = s.graph.MutualFrequency(egCtx, viewerID)
		return err
	})
	if s.prefs != nil && s.cfg.PreferenceTags > 0 {
		eg.Go(func() error {
			p, err := s.prefs.Preferences(egCtx, viewerID)
			if err != nil {
				s.log.Warn().Err(err).Int64("viewer", viewerID).Msg("suggestions: preferences unavailable, using profile interests")
				return nil
			}
			prefs = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, pools{}, err
	}

	p, err := s.buildPools(ctx, viewerID, following, mutual)
	if err != nil {
		return nil, pools{}, err
	}

	interests := interestSet(viewer.Interests, prefs.TopTags(s.cfg.PreferenceTags))
	now := s.now()
	all := make([]Candidate, 0, len(p.mutual)+len(p.popular))
	all = append(all, p.mutual...)
	all = append(all, p.popular...)
	for i := range all {
		scoreCandidate(&all[i], viewer, interests, now)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	return all, p, nil
}

func (s *Service) buildPools(ctx context.Context, viewerID int64, following map[int64]struct{}, mutual map[int64]int) (pools, error) {
	excluded := make(map[int64]struct{}, len(following)+len(mutual)+1)
	excluded[viewerID] = struct{}{}
	for id := range following {
		excluded[id] = struct{}{}
	}

	ranked := graph.RankMutual(mutual, s.cfg.MutualCap)
	var p pools
	if len(ranked) > 0 {
		ids := make([]int64, 0, len(ranked))
		for _, m := range ranked {
			ids = append(ids, m.UserID)
		}
		profiles, err := s.profiles.GetProfiles(ctx, ids)
		if err != nil {
			return pools{}, fmt.Errorf("load mutual profiles: %w", err)
		}
		byID := make(map[int64]domain.UserProfile, len(profiles))
		for _, prof := range profiles {
			byID[prof.ID] = prof
		}
		for _, m := range ranked {
			prof, ok := byID[m.UserID]
			if _, skip := excluded[m.UserID]; skip || !ok || !prof.Suggestible() {
				continue
			}
			excluded[m.UserID] = struct{}{}
			p.mutual = append(p.mutual, Candidate{Profile: prof, MutualConnections: m.Count})
		}
		for _, id := range ids {
			excluded[id] = struct{}{}
		}
	}

	activeSince := s.now().AddDate(0, 0, -s.cfg.ActiveDays)
	exclude := make([]int64, 0, len(excluded))
	for id := range excluded {
		exclude = append(exclude, id)
	}
	sort.Slice(exclude, func(i, j int) bool { return exclude[i] < exclude[j] })
	popular, err := s.profiles.ListPopular(ctx, domain.PopularQuery{ExcludeIDs: exclude, ActiveSince: activeSince, Limit: s.cfg.PopularCap})
	if err != nil {
		return pools{}, fmt.Errorf("load popular profiles: %w", err)
	}
	for _, prof := range popular {
		if len(p.popular) >= s.cfg.PopularCap {
			break
		}
		if _, skip := excluded[prof.ID]; skip || !prof.Suggestible() || prof.LastActive.Before(activeSince) {
			continue
		}
		excluded[prof.ID] = struct{}{}
		// Mutual users ranked past the cap can still surface here.
		p.popular = append(p.popular, Candidate{Profile: prof, MutualConnections: mutual[prof.ID]})
	}
	return p, nil
}

func scoreCandidate(c *Candidate, viewer domain.UserProfile, interests map[string]struct{}, now time.Time) {
	prof := c.Profile
	c.SharedInterests = sharedCount(interests, prof.Interests)
	c.Factors = Factors{
		Mutual:          MutualFactor(c.MutualConnections),
		Followers:       FollowersFactor(prof.FollowersCount),
		Recency:         RecencyFactor(prof.LastActive, now),
		EngagementRatio: EngagementRatioFactor(prof.FollowersCount, prof.FollowingCount),
		SharedInterests: SharedInterestsFactor(c.SharedInterests),
		Geo:             GeoFactor(viewer.Location, prof.Location),
	}
	c.Score = c.Factors.Weighted()
	c.Reasons = reasons(*c)
}

// MutualFactor is min(10, mutual*2).
func MutualFactor(mutual int) float64 {
	return math.Min(10, float64(mutual)*2)
}

// FollowersFactor is ln(followers+1)*10 clamped to 10.
func FollowersFactor(followers int) float64 {
	if followers <= 0 {
		return 0
	}
	return math.Min(10, math.Log(float64(followers)+1)*10)
}

// RecencyFactor is max(0, 10 - days since last activity).
func RecencyFactor(lastActive, now time.Time) float64 {
	if lastActive.IsZero() {
		return 0
	}
	days := now.Sub(lastActive).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Max(0, 10-days)
}

// EngagementRatioFactor is min(10, followers/following*2), or 0 without followings.
func EngagementRatioFactor(followers, following int) float64 {
	if following <= 0 {
		return 0
	}
	return math.Min(10, float64(followers)/float64(following)*2)
}

// SharedInterestsFactor is shared*2.
func SharedInterestsFactor(shared int) float64 {
	return float64(shared) * 2
}

// GeoFactor is 5 for the same city, 3 for the same district, 1 for the same province.
func GeoFactor(viewer, candidate *domain.Location) float64 {
	if viewer == nil || candidate == nil {
		return 0
	}
	switch {
	case viewer.City != "" && viewer.City == candidate.City:
		return 5
	case viewer.District != "" && viewer.District == candidate.District:
		return 3
	case viewer.Province != "" && viewer.Province == candidate.Province:
		return 1
	default:
		return 0
	}
}

func interestSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, raw := range list {
			v := strings.ToLower(strings.TrimSpace(raw))
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}
	return set
}

func sharedCount(viewer map[string]struct{}, candidate []string) int {
	if len(viewer) == 0 {
		return 0
	}
	n := 0
	for k := range interestSet(candidate) {
		if _, ok := viewer[k]; ok {
			n++
		}
	}
	return n
}

func reasons(c Candidate) []string {
	var out []string
	switch c.MutualConnections {
	case 0:
	case 1:
		out = append(out, "1 mutual connection")
	default:
		out = append(out, fmt.Sprintf("%d mutual connections", c.MutualConnections))
	}
	if c.Profile.FollowersCount > 0 {
		out = append(out, fmt.Sprintf("%d followers", c.Profile.FollowersCount))
	}
	if c.Factors.Recency >= 9 {
		out = append(out, "active today")
	}
	if c.SharedInterests > 0 {
		out = append(out, fmt.Sprintf("%d shared interests", c.SharedInterests))
	}
	switch c.Factors.Geo {
	case 5:
		out = append(out, "same city")
	case 3:
		out = append(out, "same district")
	case 1:
		out = append(out, "same province")
	}
	return out
}
