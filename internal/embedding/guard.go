package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig bounds traffic to the embedding model.
type GuardConfig struct {
	// RequestsPerSecond caps Embed calls; zero or less means unlimited.
	RequestsPerSecond float64
	Burst             int
	// ConsecutiveFailures opens the breaker; zero means 5.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call; zero means 30s.
	OpenTimeout time.Duration
}

// Guarded rate-limits calls to a Service and stops calling it after repeated
// failures until the breaker's open timeout has passed.
type Guarded struct {
	next    Service
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuarded wraps next.
func NewGuarded(next Service, cfg GuardConfig) *Guarded {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Guarded{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "embedding:" + next.Model(),
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			// A caller giving up says nothing about the model's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
		}),
	}
}

func (g *Guarded) Dimension() int { return g.next.Dimension() }
func (g *Guarded) Model() string  { return g.next.Model() }

// Embed waits for the rate limiter and calls through the breaker.
// While the breaker is open it fails fast with an error wrapping ErrEmbedding.
func (g *Guarded) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Embed(ctx, texts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		return nil, err
	}
	return result.([][]float32), nil
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State { return g.breaker.State() }
