package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// RabbitInteractionQueue implements domain.InteractionQueue on a durable RabbitMQ queue.
type RabbitInteractionQueue struct {
	conn  *amqp.Connection
	queue string

	mu         sync.Mutex
	publishCh  *amqp.Channel
	consumeCh  *amqp.Channel
	deliveries <-chan amqp.Delivery
}

var _ domain.InteractionQueue = (*RabbitInteractionQueue)(nil)

// NewRabbitInteractionQueue connects to url and declares the queue.
func NewRabbitInteractionQueue(url, queue string) (*RabbitInteractionQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitInteractionQueue{conn: conn, queue: queue, publishCh: ch}, nil
}

// Enqueue publishes a persistent message.
func (q *RabbitInteractionQueue) Enqueue(ctx context.Context, event domain.InteractionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	start := time.Now()
	err = q.publishCh.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Receive waits for the next delivery. A negative ack republishes the event with a
// higher attempt counter and acks the original.
func (q *RabbitInteractionQueue) Receive(ctx context.Context) (domain.InteractionEvent, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.InteractionEvent{}, nil, err
	}
	select {
	case <-ctx.Done():
		return domain.InteractionEvent{}, nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			q.resetConsumer()
			return domain.InteractionEvent{}, nil, errors.New("rabbitmq: delivery channel closed")
		}
		var event domain.InteractionEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			_ = d.Nack(false, false)
			return domain.InteractionEvent{}, nil, fmt.Errorf("decode event: %w", err)
		}
		event.Attempt++
		ack := func(success bool) error {
			if success {
				return d.Ack(false)
			}
			if err := q.Enqueue(context.Background(), event); err != nil {
				return d.Nack(false, true)
			}
			return d.Ack(false)
		}
		return event, ack, nil
	}
}

func (q *RabbitInteractionQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.consumeCh = ch
	q.deliveries = deliveries
	return deliveries, nil
}

func (q *RabbitInteractionQueue) resetConsumer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.consumeCh != nil {
		_ = q.consumeCh.Close()
	}
	q.consumeCh = nil
	q.deliveries = nil
}

// Close closes channels and the connection.
func (q *RabbitInteractionQueue) Close() error {
	q.resetConsumer()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publishCh != nil {
		_ = q.publishCh.Close()
	}
	return q.conn.Close()
}
