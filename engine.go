package goShield

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	internalaudit "github.com/MrEthical07/goShield/internal/audit"
	internalevents "github.com/MrEthical07/goShield/internal/events"
	internallockout "github.com/MrEthical07/goShield/internal/lockout"
	internalreputation "github.com/MrEthical07/goShield/internal/reputation"
	"github.com/MrEthical07/goShield/internal/window"
)

// maxIdentifierLen bounds source and account identifiers so hostile input
// cannot grow backend keys without limit.
const maxIdentifierLen = 512

// Engine defines a public type used by goShield APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config     Config
	clock      Clock
	store      CounterStore
	limiter    *window.Limiter
	lockouts   *internallockout.Tracker
	reputation *internalreputation.Tracker
	events     internalevents.Log
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	// sharedBackend is true when counters live in Redis rather than
	// process memory.
	sharedBackend bool
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.audit != nil {
		e.audit.Close()
	}
	var firstErr error
	if e.events != nil {
		if err := e.events.Close(); err != nil {
			firstErr = err
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.SnapshotNow()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeLatency(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, e.now().Sub(start))
}

func (e *Engine) now() time.Time {
	if e != nil && e.clock != nil {
		return e.clock.Now()
	}
	return time.Now()
}

func (e *Engine) validateRequest(req AccessRequest) error {
	if req.Source == "" || len(req.Source) > maxIdentifierLen {
		return ErrInvalidSource
	}
	if len(req.Account) > maxIdentifierLen {
		return ErrInvalidAccount
	}
	if req.Class == "" {
		return ErrUnknownActionClass
	}
	if _, ok := e.config.Limits.Rules[req.Class]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownActionClass, req.Class)
	}
	return nil
}

// Evaluate describes the evaluate operation and its observable behavior.
//
// Evaluate may return an error when input validation, dependency calls, or security checks fail.
// Evaluate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/engine.md
func (e *Engine) Evaluate(ctx context.Context, req AccessRequest) (Decision, error) {
	if e == nil || e.limiter == nil {
		return Decision{}, ErrEngineNotReady
	}
	now := e.now()
	defer e.observeLatency(MetricEvaluateLatency, now)

	if err := e.validateRequest(req); err != nil {
		e.metricInc(MetricInvalidInput)
		return Decision{}, err
	}

	degraded := false

	// Source blocks come first: a blocked address is turned away before
	// any account state is consulted or revealed.
	if e.reputation != nil && e.reputation.Enabled() {
		blocked, until, err := e.reputation.IsBlocked(ctx, req.Source, now)
		switch {
		case err != nil:
			if ferr := e.backendDegraded(ctx, req, componentReputation, err); ferr != nil {
				return Decision{}, ferr
			}
			degraded = true
		case blocked:
			d := Decision{
				Reason:     ReasonSourceBlocked,
				RetryAfter: until.Sub(now),
				Degraded:   degraded,
			}
			// A blocked source is not re-penalized: feeding denials of
			// already-blocked traffic back into the score would extend
			// blocks without new evidence.
			return e.denied(ctx, req, d, now, false)
		}
	}

	// Lockout outranks rate limiting so callers can distinguish a locked
	// account from an exhausted window.
	if req.Account != "" && e.lockouts != nil && e.lockouts.Enabled() {
		st, err := e.lockouts.Status(ctx, req.Account, now)
		switch {
		case err != nil:
			if ferr := e.backendDegraded(ctx, req, componentLockout, err); ferr != nil {
				return Decision{}, ferr
			}
			degraded = true
		case st.State == LockoutLocked:
			d := Decision{
				Reason:     ReasonAccountLocked,
				RetryAfter: st.RetryAfter,
				Degraded:   degraded,
			}
			return e.denied(ctx, req, d, now, true)
		}
	}

	verdict, err := e.limiter.Check(ctx, string(req.Class), window.Keys{Source: req.Source, Account: req.Account}, now)
	if err != nil {
		if ferr := e.backendDegraded(ctx, req, componentCounters, err); ferr != nil {
			return Decision{}, ferr
		}
		return e.allowed(ctx, req, Decision{Allowed: true, Degraded: true}, now)
	}
	if !verdict.Allowed {
		d := Decision{
			Reason:     ReasonRateLimited,
			RetryAfter: verdict.RetryAfter,
			ResetAt:    verdict.ResetAt,
			Degraded:   degraded,
		}
		return e.denied(ctx, req, d, now, true)
	}

	d := Decision{
		Allowed:   true,
		Remaining: verdict.Remaining,
		ResetAt:   verdict.ResetAt,
		Degraded:  degraded,
	}
	return e.allowed(ctx, req, d, now)
}

// Report describes the report operation and its observable behavior.
//
// Report may return an error when input validation, dependency calls, or security checks fail.
// Report does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/engine.md
func (e *Engine) Report(ctx context.Context, req AccessRequest, outcome Outcome) error {
	if e == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	now := e.now()
	defer e.observeLatency(MetricReportLatency, now)

	if err := e.validateRequest(req); err != nil {
		e.metricInc(MetricInvalidInput)
		return err
	}
	if outcome != OutcomeSuccess && outcome != OutcomeFailure {
		e.metricInc(MetricInvalidInput)
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, string(outcome))
	}

	// One authoritative ID per reported outcome: every store touched below
	// dedupes on it, so a retried report after an ambiguous failure cannot
	// double-count.
	eventID := uuid.NewString()
	degraded := false

	// Both outcomes consume window budget. A successful action still
	// counts, otherwise one stolen credential resets its own window.
	keys := window.Keys{Source: req.Source, Account: req.Account}
	if err := e.limiter.Record(ctx, string(req.Class), keys, eventID, now); err != nil {
		if ferr := e.backendDegraded(ctx, req, componentCounters, err); ferr != nil {
			return ferr
		}
		degraded = true
	}

	switch outcome {
	case OutcomeFailure:
		if req.Account != "" && e.lockouts != nil && e.lockouts.Enabled() {
			st, justLocked, err := e.lockouts.Fail(ctx, req.Account, now)
			switch {
			case err != nil:
				if ferr := e.backendDegraded(ctx, req, componentLockout, err); ferr != nil {
					return ferr
				}
				degraded = true
			case justLocked:
				e.accountLocked(ctx, req, st, now)
			}
		}
		if e.penalize(ctx, req, e.config.Reputation.FailureWeight, eventID, now) {
			degraded = true
		}
	case OutcomeSuccess:
		if req.Account != "" && e.lockouts != nil && e.lockouts.Enabled() {
			cleared, err := e.lockouts.Reset(ctx, req.Account)
			switch {
			case err != nil:
				if ferr := e.backendDegraded(ctx, req, componentLockout, err); ferr != nil {
					return ferr
				}
				degraded = true
			case cleared:
				e.lockoutCleared(ctx, req, now)
			}
		}
	}

	return e.reported(ctx, req, outcome, eventID, degraded, now)
}
