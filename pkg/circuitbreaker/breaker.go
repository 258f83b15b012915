package circuitbreaker

import (
	"fmt"
	"time"

	"github.com/creatorjobs/creatorjobs-api/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config tunes one breaker. Each external collaborator (CMS, sheet worker,
// membership worker) gets its own breaker so an outage in one does not trip
// the others.
type Config struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // failure-count reset interval while closed
	Timeout     time.Duration // how long the breaker stays open
	ReadyToTrip func(counts gobreaker.Counts) bool
}

// DefaultConfig trips after 3+ requests with a 60% failure ratio. The SaaS
// workers behind these breakers fail hard when they fail at all, so a low
// request floor is enough signal.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
	}
}

// NewCircuitBreaker builds a breaker from config. State changes are logged;
// a breaker opening mid-publish is the first thing to look for when partial
// successes pile up.
func NewCircuitBreaker(cfg Config) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Execute runs fn through the breaker, preserving its result type.
func Execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("type assertion failed in circuit breaker")
	}
	return typed, nil
}

// FormatError makes breaker-state errors name the affected collaborator, so
// the support detail distinguishes "the CMS is down" from "we backed off".
func FormatError(breakerName string, err error) error {
	switch err {
	case gobreaker.ErrOpenState:
		return fmt.Errorf("circuit breaker '%s' is open: %w", breakerName, err)
	case gobreaker.ErrTooManyRequests:
		return fmt.Errorf("circuit breaker '%s' has too many requests: %w", breakerName, err)
	}
	return err
}
