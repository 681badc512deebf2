package goShield

import (
	"sort"
	"time"
)

// ProtectionReport defines a public type used by goShield APIs.
//
// ProtectionReport instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProtectionReport struct {
	FailureMode          FailureMode
	SharedBackendActive  bool
	ProtectedClasses     []string
	RuleCount            int
	LockoutEnabled       bool
	LockoutThreshold     uint64
	LockoutBase          time.Duration
	LockoutCap           time.Duration
	ReputationEnabled    bool
	ReputationThreshold  float64
	PenalizeOnDenial     bool
	EventLogEnabled      bool
	EventLogCapacity     int
	AccountHashingActive bool
	AuditMirrorActive    bool
	MetricsActive        bool
}

// ProtectionReport describes the protectionreport operation and its observable behavior.
//
// ProtectionReport may return an error when input validation, dependency calls, or security checks fail.
// ProtectionReport does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ProtectionReport() ProtectionReport {
	if e == nil {
		return ProtectionReport{}
	}

	classes := make([]string, 0, len(e.config.Limits.Rules))
	ruleCount := 0
	for class, rules := range e.config.Limits.Rules {
		classes = append(classes, string(class))
		ruleCount += len(rules)
	}
	sort.Strings(classes)

	return ProtectionReport{
		FailureMode:          e.config.Backend.FailureMode,
		SharedBackendActive:  e.sharedBackend,
		ProtectedClasses:     classes,
		RuleCount:            ruleCount,
		LockoutEnabled:       e.config.Lockout.Enabled,
		LockoutThreshold:     e.config.Lockout.Threshold,
		LockoutBase:          e.config.Lockout.BaseDuration,
		LockoutCap:           e.config.Lockout.CapDuration,
		ReputationEnabled:    e.config.Reputation.Enabled,
		ReputationThreshold:  e.config.Reputation.BlockThreshold,
		PenalizeOnDenial:     e.config.Reputation.Enabled && e.config.Reputation.PenalizeOnDenial,
		EventLogEnabled:      e.events != nil,
		EventLogCapacity:     e.config.Events.Capacity,
		AccountHashingActive: e.config.Events.HashAccounts,
		AuditMirrorActive:    e.audit != nil,
		MetricsActive:        e.metrics != nil && e.metrics.Enabled(),
	}
}
