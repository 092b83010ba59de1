//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisViewedStoriesLifecycle(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisViewedStories(client, time.Minute)

	_, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, 7, nil))
	viewed, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, viewed)

	require.NoError(t, c.Set(ctx, 7, []int64{3, 4}))
	viewed, ok, err = c.Get(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, viewed, 2)

	ttl, err := client.TTL(ctx, "viewed_stories:7").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Clear(ctx, 7))
	_, ok, err = c.Get(ctx, 7)
	require.NoError(t, err)
	require.False(t, ok)
}
