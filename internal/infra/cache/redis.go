package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// emptyMarker keeps the key alive for users without views. Story ids start at 1.
const emptyMarker = "0"

// RedisViewedStories stores viewed-story sets as Redis sets with a TTL.
type RedisViewedStories struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisViewedStories creates the Redis-backed cache.
func NewRedisViewedStories(client *redis.Client, ttl time.Duration) *RedisViewedStories {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisViewedStories{client: client, prefix: "viewed_stories:", ttl: ttl}
}

func (c *RedisViewedStories) key(userID int64) string {
	return c.prefix + strconv.FormatInt(userID, 10)
}

// Get returns the cached set of userID.
func (c *RedisViewedStories) Get(ctx context.Context, userID int64) (map[int64]struct{}, bool, error) {
	start := time.Now()
	members, err := c.client.SMembers(ctx, c.key(userID)).Result()
	metrics.ObserveNetworkRequest("redis", "smembers", "viewed_stories", start, err)
	if err != nil {
		return nil, false, err
	}
	if len(members) == 0 {
		return nil, false, nil
	}
	viewed := make(map[int64]struct{}, len(members))
	for _, m := range members {
		if m == emptyMarker {
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		viewed[id] = struct{}{}
	}
	return viewed, true, nil
}

// Set replaces the set of userID in one transaction. The last writer wins.
func (c *RedisViewedStories) Set(ctx context.Context, userID int64, storyIDs []int64) error {
	key := c.key(userID)
	members := make([]any, 0, len(storyIDs)+1)
	members = append(members, emptyMarker)
	for _, id := range storyIDs {
		members = append(members, strconv.FormatInt(id, 10))
	}
	start := time.Now()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	metrics.ObserveNetworkRequest("redis", "replace_set", "viewed_stories", start, err)
	return err
}

// Clear drops the entry of userID.
func (c *RedisViewedStories) Clear(ctx context.Context, userID int64) error {
	start := time.Now()
	err := c.client.Del(ctx, c.key(userID)).Err()
	metrics.ObserveNetworkRequest("redis", "del", "viewed_stories", start, err)
	return err
}
