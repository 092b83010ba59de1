package domain

import (
	"context"
	"time"
)

// InteractionEvent is emitted by interaction endpoints (like, comment, share, save, view).
type InteractionEvent struct {
	ID          string          `json:"event_id,omitempty"`
	ViewerID    int64           `json:"viewer_id" validate:"required,gt=0"`
	AuthorID    int64           `json:"author_id" validate:"required,gt=0"`
	Kind        InteractionKind `json:"kind" validate:"required,enum"`
	ContentType ContentType     `json:"content_type,omitempty" validate:"omitempty,enum"`
	Language    Language        `json:"language,omitempty" validate:"omitempty,enum"`
	Tags        []string        `json:"tags,omitempty" validate:"max=32,dive,max=64"`
	OccurredAt  time.Time       `json:"occurred_at"`
	// Attempt counts deliveries by the worker.
	Attempt int `json:"attempt,omitempty"`
}

// InteractionQueue carries interaction events from the API to the worker.
type InteractionQueue interface {
	Enqueue(ctx context.Context, event InteractionEvent) error
	Receive(ctx context.Context) (InteractionEvent, AckFunc, error)
}

// AckFunc confirms processing or asks for redelivery.
type AckFunc func(success bool) error
