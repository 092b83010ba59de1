package queue

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

// Queue drivers.
const (
	DriverRedis    = "redis"
	DriverRabbitMQ = "rabbitmq"
	DriverDirect   = "direct"
)

// Options selects and configures the interaction queue.
type Options struct {
	Driver    string
	Name      string
	Redis     *redis.Client
	RabbitURL string
}

// Open returns the configured queue and a close func.
// The direct driver returns a nil queue so events are recorded in-process.
func Open(opts Options) (domain.InteractionQueue, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(opts.Driver) {
	case DriverDirect:
		return nil, noop, nil
	case DriverRedis, "":
		if opts.Redis == nil {
			return nil, noop, fmt.Errorf("queue driver %q requires REDIS_ADDR", DriverRedis)
		}
		return NewRedisInteractionQueue(opts.Redis, opts.Name), noop, nil
	case DriverRabbitMQ:
		q, err := NewRabbitInteractionQueue(opts.RabbitURL, opts.Name)
		if err != nil {
			return nil, noop, err
		}
		return q, q.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown queue driver %q", opts.Driver)
	}
}
