package breaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

// Settings configures a Breaker.
type Settings struct {
	Name         string
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
	// Expected errors pass through without counting as failures.
	Expected []error
}

// Breaker guards calls to one collaborator.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

// New creates a breaker that opens once FailureRatio of at least MinRequests calls fail.
//
// Counts reset every minute while closed. After Timeout the breaker lets three
// trial calls through; any failure among them reopens it. Errors listed in
// Settings.Expected (not-found and the like) count as successes.
func New(s Settings, logger zerolog.Logger) *Breaker {
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     s.Timeout,
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			for _, expected := range s.Expected {
				if errors.Is(err, expected) {
					return true
				}
			}
			return false
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker: state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})
	return &Breaker{name: s.Name, cb: cb}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state as a string.
func (b *Breaker) State() string { return b.cb.State().String() }

// Do runs fn through the breaker.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		return zero, err
	}
	typed, ok := res.(T)
	if !ok && res != nil {
		return zero, fmt.Errorf("%s: unexpected result type %T", b.name, res)
	}
	return typed, nil
}

// Run runs fn through the breaker when there is no result.
func Run(b *Breaker, fn func() error) error {
	_, err := Do(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
