package goShield

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	internalaudit "github.com/MrEthical07/goShield/internal/audit"
	internalevents "github.com/MrEthical07/goShield/internal/events"
)

const (
	eventAccessAllowed  = "access_allowed"
	eventAccessDenied   = "access_denied"
	eventReportSuccess  = "report_success"
	eventReportFailure  = "report_failure"
	eventAccountLocked  = "account_locked"
	eventLockoutCleared = "lockout_cleared"
	eventSourceBlocked  = "source_blocked"
	eventDegradedMode   = "degraded_mode"
)

const (
	componentCounters   = "counters"
	componentLockout    = "lockout"
	componentReputation = "reputation"
	componentEvents     = "events"
)

// AuditErrorCode defines a public type used by goShield APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidSource      AuditErrorCode = "invalid_source"
	auditErrInvalidAccount     AuditErrorCode = "invalid_account"
	auditErrUnknownActionClass AuditErrorCode = "unknown_action_class"
	auditErrInvalidOutcome     AuditErrorCode = "invalid_outcome"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrEventLog           AuditErrorCode = "event_log_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *internalaudit.Dispatcher {
	return internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Enabled,
		BufferSize: cfg.BufferSize,
		DropIfFull: cfg.DropIfFull,
	}, sink)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidSource):
		return auditErrInvalidSource
	case errors.Is(err, ErrInvalidAccount):
		return auditErrInvalidAccount
	case errors.Is(err, ErrUnknownActionClass):
		return auditErrUnknownActionClass
	case errors.Is(err, ErrInvalidOutcome):
		return auditErrInvalidOutcome
	case errors.Is(err, ErrEventLogUnavailable):
		return auditErrEventLog
	case errors.Is(err, ErrBackendUnavailable):
		return auditErrUnavailable
	}
	return auditErrInternal
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	source string,
	account string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Source:    source,
		Account:   account,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// eventAccount returns the account identifier as stored in events and audit
// records, hashed when the deployment asked for it.
func (e *Engine) eventAccount(account string) string {
	if account == "" {
		return ""
	}
	if e.config.Events.HashAccounts {
		return hashIdentifier(account)
	}
	return account
}

// eventDetail merges extra fields with the request correlation values
// carried in ctx. Returns nil when there is nothing to record.
func (e *Engine) eventDetail(ctx context.Context, extra map[string]string) map[string]string {
	detail := map[string]string{}
	for k, v := range extra {
		if v != "" {
			detail[k] = v
		}
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		detail["request_id"] = rid
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		detail["user_agent"] = ua
	}
	if len(detail) == 0 {
		return nil
	}
	return detail
}

func (e *Engine) newEvent(req AccessRequest, typ string, severity EventSeverity, now time.Time) internalevents.Event {
	return internalevents.Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Type:      typ,
		Severity:  severity,
		Source:    req.Source,
		Account:   e.eventAccount(req.Account),
		Class:     string(req.Class),
	}
}

// appendEvent stores one security event synchronously. The append error is
// returned after being counted and logged; callers decide whether it aborts
// the request per the configured failure mode.
func (e *Engine) appendEvent(ctx context.Context, ev internalevents.Event) error {
	if e == nil || e.events == nil {
		return nil
	}
	if err := e.events.Append(ctx, ev); err != nil {
		e.metricInc(MetricEventLogFailure)
		log.Warnf("goShield: security event append failed: %v", err)
		return err
	}
	return nil
}

// appendRequired enforces the log-before-return contract for decision and
// report events: under fail-closed an unappendable event fails the call.
func (e *Engine) appendRequired(ctx context.Context, ev internalevents.Event) error {
	err := e.appendEvent(ctx, ev)
	if err != nil && e.config.Backend.FailureMode == FailClosed {
		return fmt.Errorf("%w: %v", ErrEventLogUnavailable, err)
	}
	return nil
}
