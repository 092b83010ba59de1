package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryViewedStories keeps viewed-story sets in process memory with a TTL.
type MemoryViewedStories struct {
	store *ristretto.Cache[int64, map[int64]struct{}]
	ttl   time.Duration
}

// NewMemoryViewedStories creates an in-process cache holding up to maxEntries story ids.
//
// Cost is one per stored story id plus one per user. Ristretto wants roughly
// ten counters per admitted item for its TinyLFU admission.
func NewMemoryViewedStories(maxEntries int64, ttl time.Duration) (*MemoryViewedStories, error) {
	if maxEntries <= 0 {
		maxEntries = 1 << 20
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	store, err := ristretto.NewCache(&ristretto.Config[int64, map[int64]struct{}]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create viewed stories cache: %w", err)
	}
	return &MemoryViewedStories{store: store, ttl: ttl}, nil
}

// Get returns the cached set of userID.
func (c *MemoryViewedStories) Get(_ context.Context, userID int64) (map[int64]struct{}, bool, error) {
	viewed, ok := c.store.Get(userID)
	if !ok {
		return nil, false, nil
	}
	return copySet(viewed), true, nil
}

// Set replaces the set of userID. The last writer wins.
func (c *MemoryViewedStories) Set(_ context.Context, userID int64, storyIDs []int64) error {
	set := make(map[int64]struct{}, len(storyIDs))
	for _, id := range storyIDs {
		set[id] = struct{}{}
	}
	c.store.SetWithTTL(userID, set, int64(len(set))+1, c.ttl)
	c.store.Wait()
	return nil
}

// Clear drops the entry of userID.
func (c *MemoryViewedStories) Clear(_ context.Context, userID int64) error {
	c.store.Del(userID)
	return nil
}

// Close releases the cache goroutines.
func (c *MemoryViewedStories) Close() {
	c.store.Close()
}

func copySet(in map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
