package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
)

// GuardConfig controls the protective wrapper around Redis round trips.
type GuardConfig struct {
	// Timeout bounds each individual attempt.
	Timeout time.Duration
	// RetryDelay is the pause before the single retry of a failed attempt.
	RetryDelay time.Duration
	// BreakerFailures is the consecutive-failure count that opens the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration
	// BreakerHalfOpen caps concurrent probe requests while half-open.
	BreakerHalfOpen uint32
}

// Guard wraps backend operations with a per-attempt deadline, one retry on
// failure and a shared circuit breaker. All Redis-backed goShield components
// run their round trips through a single Guard so backend health is judged
// once, not per component.
type Guard struct {
	cfg     GuardConfig
	breaker *gobreaker.TwoStepCircuitBreaker
}

// NewGuard builds a Guard, applying conservative defaults for zero fields.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 250 * time.Millisecond
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 25 * time.Millisecond
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 10 * time.Second
	}
	if cfg.BreakerHalfOpen == 0 {
		cfg.BreakerHalfOpen = 1
	}

	return &Guard{
		cfg: cfg,
		breaker: gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
			Name:        "goshield-backend",
			MaxRequests: cfg.BreakerHalfOpen,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= cfg.BreakerFailures
			},
		}),
	}
}

// Do runs op under the guard. op receives a context bounded by the configured
// per-attempt timeout and must treat redis.Nil style misses as success. A
// failed attempt is retried once; remaining failures are reported as
// ErrUnavailable unless the parent context was canceled first.
func (g *Guard) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if g == nil {
		return op(ctx)
	}

	done, err := g.breaker.Allow()
	if err != nil {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}

	attempt := func() (struct{}, error) {
		opCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
		return struct{}{}, op(opCtx)
	}

	_, err = backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewConstantBackOff(g.cfg.RetryDelay)),
		backoff.WithMaxTries(2))

	done(err == nil)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
