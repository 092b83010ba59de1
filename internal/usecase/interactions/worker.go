package interactions

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

const defaultMaxAttempts = 3

// Worker drains the interaction queue into the interaction store.
type Worker struct {
	queue       domain.InteractionQueue
	recorder    domain.InteractionRecorder
	maxAttempts int
	log         zerolog.Logger
	backoff     time.Duration
}

// NewWorker creates a queue consumer.
func NewWorker(queue domain.InteractionQueue, recorder domain.InteractionRecorder, maxAttempts int, logger zerolog.Logger) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Worker{queue: queue, recorder: recorder, maxAttempts: maxAttempts, log: logger, backoff: time.Second}
}

// Run processes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		event, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("worker: queue read failed")
			w.sleep(ctx)
			continue
		}
		w.handle(ctx, event, ack)
	}
}

func (w *Worker) handle(ctx context.Context, event domain.InteractionEvent, ack domain.AckFunc) {
	evLog := w.log.With().
		Str("event_id", event.ID).
		Int64("viewer", event.ViewerID).
		Int64("author", event.AuthorID).
		Str("kind", string(event.Kind)).
		Int("attempt", event.Attempt).
		Logger()

	err := w.recorder.RecordInteraction(ctx, event)
	switch {
	case err == nil:
		if ackErr := ack(true); ackErr != nil {
			evLog.Error().Err(ackErr).Msg("worker: ack failed")
		}
	case errors.Is(err, domain.ErrInvalidInteraction):
		evLog.Warn().Err(err).Msg("worker: invalid event dropped")
		if ackErr := ack(true); ackErr != nil {
			evLog.Error().Err(ackErr).Msg("worker: ack failed")
		}
	case event.Attempt < w.maxAttempts:
		metrics.IncInteractionError("store")
		evLog.Warn().Err(err).Msg("worker: record failed, will retry")
		if ackErr := ack(false); ackErr != nil {
			evLog.Error().Err(ackErr).Msg("worker: requeue failed")
		}
	default:
		metrics.IncInteractionError("store")
		evLog.Error().Err(err).Msg("worker: attempts exhausted, event dropped")
		if ackErr := ack(true); ackErr != nil {
			evLog.Error().Err(ackErr).Msg("worker: ack failed")
		}
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.backoff):
	}
}
