package goShield

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goShield/internal/window"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	BackendAvailable bool
	BackendLatency   time.Duration
}

// GetLockoutStatus describes the getlockoutstatus operation and its observable behavior.
//
// GetLockoutStatus may return an error when input validation, dependency calls, or security checks fail.
// GetLockoutStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/lockout.md
func (e *Engine) GetLockoutStatus(ctx context.Context, account string) (*LockoutStatus, error) {
	if e == nil || e.lockouts == nil {
		return nil, ErrEngineNotReady
	}
	if account == "" {
		return nil, ErrMissingAccount
	}

	st, err := e.lockouts.Status(ctx, account, e.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return st, nil
}

// GetReputation describes the getreputation operation and its observable behavior.
//
// GetReputation may return an error when input validation, dependency calls, or security checks fail.
// GetReputation does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/reputation.md
func (e *Engine) GetReputation(ctx context.Context, source string) (*ReputationStatus, error) {
	if e == nil || e.reputation == nil {
		return nil, ErrEngineNotReady
	}
	if source == "" {
		return nil, ErrInvalidSource
	}

	st, err := e.reputation.Status(ctx, source, e.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return st, nil
}

// GetRemainingAttempts describes the getremainingattempts operation and its observable behavior.
//
// GetRemainingAttempts may return an error when input validation, dependency calls, or security checks fail.
// GetRemainingAttempts does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetRemainingAttempts(ctx context.Context, req AccessRequest) (uint64, error) {
	if e == nil || e.limiter == nil {
		return 0, ErrEngineNotReady
	}
	if err := e.validateRequest(req); err != nil {
		return 0, err
	}

	verdict, err := e.limiter.Check(ctx, string(req.Class), window.Keys{Source: req.Source, Account: req.Account}, e.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return verdict.Remaining, nil
}

// Health describes the health operation and its observable behavior.
//
// Health may return an error when input validation, dependency calls, or security checks fail.
// Health does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.store == nil {
		return HealthStatus{}
	}

	start := time.Now()
	err := e.store.Ping(ctx)
	return HealthStatus{
		BackendAvailable: err == nil,
		BackendLatency:   time.Since(start),
	}
}
