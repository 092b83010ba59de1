package domain

import (
	"errors"
	"fmt"
)

// ErrRankingUnavailable matches every RankingUnavailableError.
var ErrRankingUnavailable = errors.New("ranking unavailable")

// ErrInvalidInteraction is returned for events that fail validation.
var ErrInvalidInteraction = errors.New("invalid interaction")

// ErrProfileNotFound is returned when a user profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ErrInteractionNotFound is returned when a viewer never interacted with an author.
var ErrInteractionNotFound = errors.New("interaction record not found")

// RankingUnavailableError wraps a collaborator failure during feed or suggestion computation.
type RankingUnavailableError struct {
	Op  string
	Err error
}

func (e *RankingUnavailableError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrRankingUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrRankingUnavailable, e.Err)
}

func (e *RankingUnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRankingUnavailable) hold.
func (e *RankingUnavailableError) Is(target error) bool {
	return target == ErrRankingUnavailable
}

// Unavailable wraps err as a RankingUnavailableError for op.
func Unavailable(op string, err error) error {
	var existing *RankingUnavailableError
	if errors.As(err, &existing) {
		return err
	}
	return &RankingUnavailableError{Op: op, Err: err}
}
