package goShield

import (
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goShield/internal/audit"
	internalevents "github.com/MrEthical07/goShield/internal/events"
	internallockout "github.com/MrEthical07/goShield/internal/lockout"
	internalmetrics "github.com/MrEthical07/goShield/internal/metrics"
	internalreputation "github.com/MrEthical07/goShield/internal/reputation"
	internalstore "github.com/MrEthical07/goShield/internal/store"
	"github.com/MrEthical07/goShield/internal/window"
)

// Clock supplies the engine's notion of now. Inject a fake through
// [Builder.WithClock] for deterministic tests; production deployments use
// the system clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock the engine uses by default.
func SystemClock() Clock { return systemClock{} }

// Scope selects which request identifier a rate-limit rule keys by.
//
//	Docs: docs/rate-limiting.md
type Scope = window.Scope

const (
	// ScopeSource is an exported constant or variable used by the protection engine.
	ScopeSource = window.ScopeSource
	// ScopeAccount is an exported constant or variable used by the protection engine.
	ScopeAccount = window.ScopeAccount
	// ScopeGlobal is an exported constant or variable used by the protection engine.
	ScopeGlobal = window.ScopeGlobal
)

// Rule bounds one scope of an action class to MaxAttempts per Window.
// Several rules may target the same scope to express burst and sustained
// bounds side by side.
type Rule = window.Rule

// ActionClass names a category of protected actions with its own rule table.
type ActionClass string

const (
	// ClassLogin is an exported constant or variable used by the protection engine.
	ClassLogin ActionClass = "login"
	// ClassSensitiveForm is an exported constant or variable used by the protection engine.
	ClassSensitiveForm ActionClass = "sensitive-form"
	// ClassAdminAction is an exported constant or variable used by the protection engine.
	ClassAdminAction ActionClass = "admin-action"
)

// Outcome is the caller-observed result of an action reported back to the
// engine.
type Outcome string

const (
	// OutcomeSuccess is an exported constant or variable used by the protection engine.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure is an exported constant or variable used by the protection engine.
	OutcomeFailure Outcome = "failure"
)

// DenyReason explains why an evaluation denied the action.
type DenyReason string

const (
	// ReasonNone is an exported constant or variable used by the protection engine.
	ReasonNone DenyReason = "none"
	// ReasonSourceBlocked is an exported constant or variable used by the protection engine.
	ReasonSourceBlocked DenyReason = "source-blocked"
	// ReasonAccountLocked is an exported constant or variable used by the protection engine.
	ReasonAccountLocked DenyReason = "account-locked"
	// ReasonRateLimited is an exported constant or variable used by the protection engine.
	ReasonRateLimited DenyReason = "rate-limited"
)

// AccessRequest identifies one attempted action: where it comes from, which
// account it targets (optional) and what kind of action it is.
type AccessRequest struct {
	// Source is the network origin of the attempt, typically the client IP.
	Source string
	// Account is the identifier the action targets. Empty for actions with
	// no account context; account-scoped rules and lockout then do not apply.
	Account string
	// Class selects the rule table. Must be declared in the configuration.
	Class ActionClass
}

// Decision is the outcome of [Engine.Evaluate].
//
// Decision instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Decision struct {
	// Allowed reports whether the action may proceed.
	Allowed bool
	// Reason is ReasonNone on allow, otherwise the deny cause.
	Reason DenyReason
	// RetryAfter is how long the caller should wait before retrying a
	// denied action. Zero on allow.
	RetryAfter time.Duration
	// Remaining is the smallest attempt budget left across the windows
	// that apply to the request. Zero when denied or when no window applies.
	Remaining uint64
	// ResetAt is when the most restrictive window frees one attempt. Zero
	// when no window currently holds any hit.
	ResetAt time.Time
	// Degraded marks a decision produced under the fail-open policy while
	// the backend was unreachable.
	Degraded bool
}

// CounterStore is the pluggable attempt-counter backend contract accepted by
// [Builder.WithCounterStore].
type CounterStore = internalstore.Store

// CounterKey identifies one attempt counter inside a [CounterStore].
type CounterKey = internalstore.Key

// LockoutState defines a public type used by goShield APIs.
type LockoutState = internallockout.State

const (
	// LockoutActive is an exported constant or variable used by the protection engine.
	LockoutActive = internallockout.StateActive
	// LockoutLocked is an exported constant or variable used by the protection engine.
	LockoutLocked = internallockout.StateLocked
)

// LockoutStatus reports an account's lockout record.
//
//	Docs: docs/lockout.md
type LockoutStatus = internallockout.Status

// ReputationStatus reports a source's decayed score and block marker.
//
//	Docs: docs/reputation.md
type ReputationStatus = internalreputation.Status

// SecurityEvent is one immutable record in the security event log.
//
//	Docs: docs/events.md
type SecurityEvent = internalevents.Event

// EventSeverity grades how alarming a security event is.
type EventSeverity = internalevents.Severity

const (
	// SeverityInfo is an exported constant or variable used by the protection engine.
	SeverityInfo = internalevents.SeverityInfo
	// SeverityWarning is an exported constant or variable used by the protection engine.
	SeverityWarning = internalevents.SeverityWarning
	// SeverityError is an exported constant or variable used by the protection engine.
	SeverityError = internalevents.SeverityError
	// SeverityCritical is an exported constant or variable used by the protection engine.
	SeverityCritical = internalevents.SeverityCritical
)

// EventFilter narrows [Engine.ListEvents]. Zero-valued fields match
// everything.
type EventFilter = internalevents.Filter

// EventPage is one newest-first page of matching security events.
type EventPage = internalevents.Page

// AuditEvent defines a public type used by goShield APIs.
//
// AuditEvent instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditEvent = internalaudit.Event

// AuditSink defines a public type used by goShield APIs.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events for consumption through a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink serializes audit events as one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID defines a public type used by goShield APIs.
type MetricID = internalmetrics.MetricID

// Metrics defines a public type used by goShield APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot defines a public type used by goShield APIs.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	// MetricEvaluateAllowed is an exported constant or variable used by the protection engine.
	MetricEvaluateAllowed = MetricID(internalmetrics.MetricEvaluateAllowed)
	// MetricEvaluateDenied is an exported constant or variable used by the protection engine.
	MetricEvaluateDenied = MetricID(internalmetrics.MetricEvaluateDenied)
	// MetricDenySourceBlocked is an exported constant or variable used by the protection engine.
	MetricDenySourceBlocked = MetricID(internalmetrics.MetricDenySourceBlocked)
	// MetricDenyAccountLocked is an exported constant or variable used by the protection engine.
	MetricDenyAccountLocked = MetricID(internalmetrics.MetricDenyAccountLocked)
	// MetricDenyRateLimited is an exported constant or variable used by the protection engine.
	MetricDenyRateLimited = MetricID(internalmetrics.MetricDenyRateLimited)
	// MetricReportSuccess is an exported constant or variable used by the protection engine.
	MetricReportSuccess = MetricID(internalmetrics.MetricReportSuccess)
	// MetricReportFailure is an exported constant or variable used by the protection engine.
	MetricReportFailure = MetricID(internalmetrics.MetricReportFailure)
	// MetricLockoutTriggered is an exported constant or variable used by the protection engine.
	MetricLockoutTriggered = MetricID(internalmetrics.MetricLockoutTriggered)
	// MetricLockoutCleared is an exported constant or variable used by the protection engine.
	MetricLockoutCleared = MetricID(internalmetrics.MetricLockoutCleared)
	// MetricSourceBlockTriggered is an exported constant or variable used by the protection engine.
	MetricSourceBlockTriggered = MetricID(internalmetrics.MetricSourceBlockTriggered)
	// MetricReputationPenalty is an exported constant or variable used by the protection engine.
	MetricReputationPenalty = MetricID(internalmetrics.MetricReputationPenalty)
	// MetricDegradedMode is an exported constant or variable used by the protection engine.
	MetricDegradedMode = MetricID(internalmetrics.MetricDegradedMode)
	// MetricBackendUnavailable is an exported constant or variable used by the protection engine.
	MetricBackendUnavailable = MetricID(internalmetrics.MetricBackendUnavailable)
	// MetricInvalidInput is an exported constant or variable used by the protection engine.
	MetricInvalidInput = MetricID(internalmetrics.MetricInvalidInput)
	// MetricEventLogFailure is an exported constant or variable used by the protection engine.
	MetricEventLogFailure = MetricID(internalmetrics.MetricEventLogFailure)
	// MetricEvaluateLatency is an exported constant or variable used by the protection engine.
	MetricEvaluateLatency = MetricID(internalmetrics.MetricEvaluateLatency)
	// MetricReportLatency is an exported constant or variable used by the protection engine.
	MetricReportLatency = MetricID(internalmetrics.MetricReportLatency)
)

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
//
//	Docs: docs/metrics.md
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}
