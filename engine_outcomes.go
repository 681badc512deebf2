package goShield

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func decisionSeverity(d Decision) EventSeverity {
	switch {
	case d.Allowed:
		return SeverityInfo
	case d.Reason == ReasonSourceBlocked:
		return SeverityError
	default:
		return SeverityWarning
	}
}

func (e *Engine) allowed(ctx context.Context, req AccessRequest, d Decision, now time.Time) (Decision, error) {
	d.Allowed = true
	d.Reason = ReasonNone
	e.metricInc(MetricEvaluateAllowed)

	ev := e.newEvent(req, eventAccessAllowed, SeverityInfo, now)
	ev.Decision = "allow"
	detail := map[string]string{}
	if d.Remaining > 0 {
		detail["remaining"] = strconv.FormatUint(d.Remaining, 10)
	}
	if d.Degraded {
		detail["degraded"] = "true"
	}
	ev.Detail = e.eventDetail(ctx, detail)
	if err := e.appendRequired(ctx, ev); err != nil {
		return Decision{}, err
	}

	e.emitAudit(ctx, eventAccessAllowed, true, req.Source, e.eventAccount(req.Account), nil, func() map[string]string {
		return map[string]string{
			"class": string(req.Class),
		}
	})
	return d, nil
}

func (e *Engine) denied(ctx context.Context, req AccessRequest, d Decision, now time.Time, penalizeSource bool) (Decision, error) {
	e.metricInc(MetricEvaluateDenied)
	switch d.Reason {
	case ReasonSourceBlocked:
		e.metricInc(MetricDenySourceBlocked)
	case ReasonAccountLocked:
		e.metricInc(MetricDenyAccountLocked)
	case ReasonRateLimited:
		e.metricInc(MetricDenyRateLimited)
	}

	if penalizeSource && e.config.Reputation.PenalizeOnDenial {
		if e.penalize(ctx, req, e.config.Reputation.DenialWeight, uuid.NewString(), now) {
			d.Degraded = true
		}
	}

	ev := e.newEvent(req, eventAccessDenied, decisionSeverity(d), now)
	ev.Decision = "deny"
	ev.Reason = string(d.Reason)
	detail := map[string]string{
		"retry_after": d.RetryAfter.String(),
	}
	if d.Degraded {
		detail["degraded"] = "true"
	}
	ev.Detail = e.eventDetail(ctx, detail)
	if err := e.appendRequired(ctx, ev); err != nil {
		return Decision{}, err
	}

	e.emitAudit(ctx, eventAccessDenied, false, req.Source, e.eventAccount(req.Account), nil, func() map[string]string {
		return map[string]string{
			"class":  string(req.Class),
			"reason": string(d.Reason),
		}
	})
	return d, nil
}

func (e *Engine) reported(ctx context.Context, req AccessRequest, outcome Outcome, eventID string, degraded bool, now time.Time) error {
	typ := eventReportSuccess
	severity := SeverityInfo
	metric := MetricReportSuccess
	success := true
	if outcome == OutcomeFailure {
		typ = eventReportFailure
		severity = SeverityWarning
		metric = MetricReportFailure
		success = false
	}
	e.metricInc(metric)

	ev := e.newEvent(req, typ, severity, now)
	// The report event carries the authoritative outcome ID shared with
	// every counter it incremented.
	ev.ID = eventID
	detail := map[string]string{
		"outcome": string(outcome),
	}
	if degraded {
		detail["degraded"] = "true"
	}
	ev.Detail = e.eventDetail(ctx, detail)
	if err := e.appendRequired(ctx, ev); err != nil {
		return err
	}

	e.emitAudit(ctx, typ, success, req.Source, e.eventAccount(req.Account), nil, func() map[string]string {
		return map[string]string{
			"class": string(req.Class),
		}
	})
	return nil
}

// penalize applies one reputation penalty against the request source. It
// returns true when the backend degraded instead of recording the penalty.
func (e *Engine) penalize(ctx context.Context, req AccessRequest, weight float64, id string, now time.Time) bool {
	if e.reputation == nil || !e.reputation.Enabled() || weight <= 0 {
		return false
	}

	st, blockApplied, err := e.reputation.Penalize(ctx, req.Source, weight, id, now)
	if err != nil {
		e.noteDegraded(ctx, req, componentReputation, err)
		return true
	}

	e.metricInc(MetricReputationPenalty)
	if blockApplied {
		e.metricInc(MetricSourceBlockTriggered)
		ev := e.newEvent(req, eventSourceBlocked, SeverityError, now)
		ev.Reason = string(ReasonSourceBlocked)
		ev.Detail = e.eventDetail(ctx, map[string]string{
			"score":         strconv.FormatFloat(st.Score, 'f', 2, 64),
			"blocked_until": st.BlockedUntil.UTC().Format(time.RFC3339),
		})
		_ = e.appendEvent(ctx, ev)
		e.emitAudit(ctx, eventSourceBlocked, false, req.Source, e.eventAccount(req.Account), nil, func() map[string]string {
			return map[string]string{
				"blocked_until": st.BlockedUntil.UTC().Format(time.RFC3339),
			}
		})
	}
	return false
}

func (e *Engine) accountLocked(ctx context.Context, req AccessRequest, st *LockoutStatus, now time.Time) {
	e.metricInc(MetricLockoutTriggered)

	ev := e.newEvent(req, eventAccountLocked, SeverityError, now)
	ev.Reason = string(ReasonAccountLocked)
	ev.Detail = e.eventDetail(ctx, map[string]string{
		"consecutive_failures": strconv.FormatUint(st.ConsecutiveFailures, 10),
		"locked_until":         st.LockedUntil.UTC().Format(time.RFC3339),
	})
	_ = e.appendEvent(ctx, ev)

	e.emitAudit(ctx, eventAccountLocked, false, req.Source, e.eventAccount(req.Account), nil, func() map[string]string {
		return map[string]string{
			"consecutive_failures": strconv.FormatUint(st.ConsecutiveFailures, 10),
		}
	})
}

func (e *Engine) lockoutCleared(ctx context.Context, req AccessRequest, now time.Time) {
	e.metricInc(MetricLockoutCleared)

	ev := e.newEvent(req, eventLockoutCleared, SeverityInfo, now)
	_ = e.appendEvent(ctx, ev)

	e.emitAudit(ctx, eventLockoutCleared, true, req.Source, e.eventAccount(req.Account), nil, nil)
}

// noteDegraded records one degraded backend call: metrics, a warning log,
// the degraded_mode security event and the audit mirror.
func (e *Engine) noteDegraded(ctx context.Context, req AccessRequest, component string, cause error) {
	e.metricInc(MetricBackendUnavailable)
	e.metricInc(MetricDegradedMode)
	log.Warnf("goShield: %s backend degraded (%s): %v", component, e.config.Backend.FailureMode, cause)

	ev := e.newEvent(req, eventDegradedMode, SeverityError, e.now())
	ev.Detail = e.eventDetail(ctx, map[string]string{
		"component": component,
		"mode":      e.config.Backend.FailureMode.String(),
		"error":     cause.Error(),
	})
	_ = e.appendEvent(ctx, ev)

	e.emitAudit(ctx, eventDegradedMode, false, req.Source, e.eventAccount(req.Account), ErrBackendUnavailable, func() map[string]string {
		return map[string]string{
			"component": component,
		}
	})
}

// backendDegraded applies the failure policy to one failed backend call:
// fail-open lets the caller continue degraded, fail-closed aborts.
func (e *Engine) backendDegraded(ctx context.Context, req AccessRequest, component string, cause error) error {
	e.noteDegraded(ctx, req, component, cause)
	if e.config.Backend.FailureMode == FailClosed {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, cause)
	}
	return nil
}
