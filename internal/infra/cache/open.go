package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

// Cache drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Open returns the viewed-stories cache for driver and a func releasing it.
func Open(driver string, client *redis.Client, ttl time.Duration, maxEntries int64) (domain.ViewedStoriesCache, func(), error) {
	switch strings.ToLower(driver) {
	case DriverMemory, "":
		c, err := NewMemoryViewedStories(maxEntries, ttl)
		if err != nil {
			return nil, func() {}, err
		}
		return c, c.Close, nil
	case DriverRedis:
		if client == nil {
			return nil, func() {}, fmt.Errorf("viewed stories driver %q requires REDIS_ADDR", DriverRedis)
		}
		return NewRedisViewedStories(client, ttl), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown viewed stories driver %q", driver)
	}
}
