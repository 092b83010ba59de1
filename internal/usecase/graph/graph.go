package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

const defaultFanOut = 8

// Graph traverses the following graph at most two hops deep.
type Graph struct {
	follows domain.FollowRepo
	fanOut  int
}

// New creates a graph reader. fanOut bounds concurrent follow lookups.
func New(follows domain.FollowRepo, fanOut int) *Graph {
	if fanOut <= 0 {
		fanOut = defaultFanOut
	}
	return &Graph{follows: follows, fanOut: fanOut}
}

// OneHop returns the set of users userID follows.
func (g *Graph) OneHop(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	ids, err := g.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list following of %d: %w", userID, err)
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == userID {
			continue
		}
		set[id] = struct{}{}
	}
	return set, nil
}

// MutualFrequency counts, per candidate, how many of userID's follows follow the candidate.
// userID and users it already follows are excluded.
func (g *Graph) MutualFrequency(ctx context.Context, userID int64) (map[int64]int, error) {
	first, err := g.OneHop(ctx, userID)
	if err != nil {
		return nil, err
	}
	return g.mutualFrom(ctx, userID, first)
}

func (g *Graph) mutualFrom(ctx context.Context, userID int64, first map[int64]struct{}) (map[int64]int, error) {
	counts := make(map[int64]int)
	if len(first) == 0 {
		return counts, nil
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.fanOut)
	for member := range first {
		eg.Go(func() error {
			ids, err := g.follows.ListFollowing(egCtx, member)
			if err != nil {
				return fmt.Errorf("list following of %d: %w", member, err)
			}
			mu.Lock()
			defer mu.Unlock()
			seen := make(map[int64]struct{}, len(ids))
			for _, id := range ids {
				if id == userID {
					continue
				}
				if _, followed := first[id]; followed {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				counts[id]++
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Mutual is one entry of a ranked mutual-connection list.
type Mutual struct {
	UserID int64
	Count  int
}

// RankMutual orders counts by count, then user id, and keeps at most limit entries.
func RankMutual(counts map[int64]int, limit int) []Mutual {
	out := make([]Mutual, 0, len(counts))
	for id, c := range counts {
		out = append(out, Mutual{UserID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
