package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// RedisInteractionQueue implements domain.InteractionQueue on a Redis list.
type RedisInteractionQueue struct {
	client *redis.Client
	key    string
}

var _ domain.InteractionQueue = (*RedisInteractionQueue)(nil)

// NewRedisInteractionQueue creates a queue on key.
func NewRedisInteractionQueue(client *redis.Client, key string) *RedisInteractionQueue {
	return &RedisInteractionQueue{client: client, key: key}
}

// Enqueue pushes an event.
func (q *RedisInteractionQueue) Enqueue(ctx context.Context, event domain.InteractionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push event: %w", err)
	}
	return nil
}

// Receive blocks until an event is available. A negative ack pushes the event back
// with its attempt counter increased.
func (q *RedisInteractionQueue) Receive(ctx context.Context) (domain.InteractionEvent, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.InteractionEvent{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.InteractionEvent{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.InteractionEvent{}, nil, err
		}
		if len(res) != 2 {
			return domain.InteractionEvent{}, nil, errors.New("redis queue: unexpected response")
		}
		var event domain.InteractionEvent
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			return domain.InteractionEvent{}, nil, fmt.Errorf("decode event: %w", err)
		}
		event.Attempt++
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.Enqueue(context.Background(), event)
		}
		return event, ack, nil
	}
}
