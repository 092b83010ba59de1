package interactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// Publisher forwards interaction events without ever failing the caller.
type Publisher struct {
	queue    domain.InteractionQueue
	recorder domain.InteractionRecorder
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

// NewPublisher creates a publisher. With a nil queue events go straight to recorder.
func NewPublisher(queue domain.InteractionQueue, recorder domain.InteractionRecorder, logger zerolog.Logger) *Publisher {
	return &Publisher{
		queue:    queue,
		recorder: recorder,
		log:      logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Publish assigns an id and timestamp and hands the event off. Failures are logged only.
func (p *Publisher) Publish(ctx context.Context, event domain.InteractionEvent) {
	if event.ID == "" {
		event.ID = p.newID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	evLog := p.log.With().
		Str("event_id", event.ID).
		Int64("viewer", event.ViewerID).
		Int64("author", event.AuthorID).
		Str("kind", string(event.Kind)).
		Logger()

	if p.queue != nil {
		if err := p.queue.Enqueue(ctx, event); err != nil {
			metrics.IncInteractionError("enqueue")
			evLog.Error().Err(err).Msg("interactions: enqueue failed, event dropped")
		}
		return
	}
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordInteraction(ctx, event); err != nil {
		metrics.IncInteractionError("store")
		evLog.Error().Err(err).Msg("interactions: record failed")
	}
}
