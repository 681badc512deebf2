package internaldefs

import (
	goShield "github.com/MrEthical07/goShield"
)

// CounterDef defines a public type used by goShield APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goShield.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goShield APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goShield.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the protection engine.
var CounterDefs = []CounterDef{
	{ID: goShield.MetricEvaluateAllowed, Name: "goshield_evaluate_allowed_total", Help: "Evaluations that allowed the action."},
	{ID: goShield.MetricEvaluateDenied, Name: "goshield_evaluate_denied_total", Help: "Evaluations that denied the action."},
	{ID: goShield.MetricDenySourceBlocked, Name: "goshield_deny_source_blocked_total", Help: "Denials caused by a blocked source address."},
	{ID: goShield.MetricDenyAccountLocked, Name: "goshield_deny_account_locked_total", Help: "Denials caused by a locked account."},
	{ID: goShield.MetricDenyRateLimited, Name: "goshield_deny_rate_limited_total", Help: "Denials caused by an exhausted rate-limit window."},
	{ID: goShield.MetricReportSuccess, Name: "goshield_report_success_total", Help: "Reported successful outcomes."},
	{ID: goShield.MetricReportFailure, Name: "goshield_report_failure_total", Help: "Reported failed outcomes."},
	{ID: goShield.MetricLockoutTriggered, Name: "goshield_lockout_triggered_total", Help: "Accounts locked by consecutive failures."},
	{ID: goShield.MetricLockoutCleared, Name: "goshield_lockout_cleared_total", Help: "Lockout records cleared by a reported success."},
	{ID: goShield.MetricSourceBlockTriggered, Name: "goshield_source_block_triggered_total", Help: "Source blocks applied or extended."},
	{ID: goShield.MetricReputationPenalty, Name: "goshield_reputation_penalty_total", Help: "Reputation penalties recorded."},
	{ID: goShield.MetricDegradedMode, Name: "goshield_degraded_mode_total", Help: "Calls handled under the degraded policy."},
	{ID: goShield.MetricBackendUnavailable, Name: "goshield_backend_unavailable_total", Help: "Backend calls that failed after retry."},
	{ID: goShield.MetricInvalidInput, Name: "goshield_invalid_input_total", Help: "Requests rejected at the boundary."},
	{ID: goShield.MetricEventLogFailure, Name: "goshield_event_log_failure_total", Help: "Security event appends that failed."},
}

// HistogramDefs is an exported constant or variable used by the protection engine.
var HistogramDefs = []HistogramDef{
	{ID: goShield.MetricEvaluateLatency, Name: "goshield_evaluate_latency_ms", Help: "Evaluate latency histogram."},
	{ID: goShield.MetricReportLatency, Name: "goshield_report_latency_ms", Help: "Report latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the protection engine.
var HistogramBounds = []string{
	"5",
	"10",
	"25",
	"50",
	"100",
	"250",
	"500",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the protection engine.
var HistogramBoundSuffix = []string{
	"5",
	"10",
	"25",
	"50",
	"100",
	"250",
	"500",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
