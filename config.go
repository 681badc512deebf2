package goShield

import (
	"errors"
	"time"
)

// Config defines a public type used by goShield APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Limits     LimitsConfig
	Lockout    LockoutConfig
	Reputation ReputationConfig
	Events     EventLogConfig
	Backend    BackendConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// LimitsConfig defines a public type used by goShield APIs.
//
// LimitsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LimitsConfig struct {
	// Rules maps each declared action class to its rule table. Requests
	// whose class has no entry are rejected as unknown. Multiple rules per
	// class are evaluated together and all must pass.
	Rules map[ActionClass][]Rule
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig defines a public type used by goShield APIs.
//
// LockoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockoutConfig struct {
	Enabled bool
	// Threshold is the consecutive-failure count that locks an account.
	Threshold uint64
	// BaseDuration is the first lock length; each further failure doubles
	// it up to CapDuration.
	BaseDuration time.Duration
	CapDuration  time.Duration
	// IdleTTL evicts failure records untouched for this long.
	IdleTTL time.Duration
}

/*
====================================
REPUTATION CONFIG
====================================
*/

// ReputationConfig defines a public type used by goShield APIs.
//
// ReputationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ReputationConfig struct {
	Enabled bool
	// DecayHalfLife halves a violation's contribution to the score.
	DecayHalfLife time.Duration
	// BlockThreshold is the decayed score at which the source gets blocked.
	// Reaching it should take materially more sustained abuse than a
	// single account lockout.
	BlockThreshold float64
	// BlockDuration is the base block extension per violation at or over
	// the threshold; MaxBlockDuration caps the total extension.
	BlockDuration    time.Duration
	MaxBlockDuration time.Duration
	// ViolationHorizon bounds entry retention; several half-lives long.
	ViolationHorizon time.Duration
	// FailureWeight is the penalty for a reported failed attempt;
	// DenialWeight for a denied evaluation. Failures weigh more.
	FailureWeight float64
	DenialWeight  float64
	// PenalizeOnDenial also penalizes sources for denied evaluations, not
	// only reported failures.
	PenalizeOnDenial bool
}

/*
====================================
EVENT LOG CONFIG
====================================
*/

// EventLogConfig defines a public type used by goShield APIs.
//
// EventLogConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventLogConfig struct {
	Enabled bool
	// Capacity bounds retained events; the oldest are dropped beyond it.
	Capacity int
	// HashAccounts stores an irreversible short digest of account
	// identifiers in events and audit records instead of the raw value.
	HashAccounts bool
	// DefaultPageLimit and MaxPageLimit bound ListEvents pagination.
	DefaultPageLimit int
	MaxPageLimit     int
}

/*
====================================
BACKEND CONFIG
====================================
*/

// FailureMode selects the degraded policy when the backend is unreachable.
type FailureMode uint8

const (
	// FailOpen is an exported constant or variable used by the protection engine.
	FailOpen FailureMode = iota
	// FailClosed is an exported constant or variable used by the protection engine.
	FailClosed
)

// String returns the mode name.
func (m FailureMode) String() string {
	switch m {
	case FailOpen:
		return "fail-open"
	case FailClosed:
		return "fail-closed"
	default:
		return "unknown"
	}
}

// BackendConfig defines a public type used by goShield APIs.
//
// BackendConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BackendConfig struct {
	// FailureMode picks degraded behavior: FailOpen admits actions while
	// the backend is down, FailClosed surfaces ErrBackendUnavailable.
	FailureMode FailureMode
	// OperationTimeout bounds each backend round trip.
	OperationTimeout time.Duration
	// RetryDelay is the pause before the single retry of a failed round trip.
	RetryDelay time.Duration
	// BreakerFailures consecutive failures open the circuit breaker for
	// BreakerCooldown; BreakerHalfOpen caps probes while half-open.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	BreakerHalfOpen uint32
	// KeyPrefix namespaces counter keys in Redis.
	KeyPrefix string
	// JanitorInterval is the sweep period of the in-memory backend.
	JanitorInterval time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goShield APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goShield APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS AND PRESETS
====================================
*/

// DefaultConfig returns the baseline policy: conservative login limits,
// exponential lockout, decaying source reputation and fail-open degradation.
func DefaultConfig() Config {
	return Config{
		Limits: LimitsConfig{
			Rules: map[ActionClass][]Rule{
				ClassLogin: {
					{Scope: ScopeSource, MaxAttempts: 3, Window: 15 * time.Minute},
					{Scope: ScopeAccount, MaxAttempts: 5, Window: 30 * time.Minute},
				},
				ClassSensitiveForm: {
					{Scope: ScopeSource, MaxAttempts: 15, Window: 10 * time.Minute},
				},
				ClassAdminAction: {
					{Scope: ScopeSource, MaxAttempts: 10, Window: 10 * time.Minute},
				},
			},
		},
		Lockout: LockoutConfig{
			Enabled:      true,
			Threshold:    5,
			BaseDuration: 5 * time.Minute,
			CapDuration:  24 * time.Hour,
			IdleTTL:      7 * 24 * time.Hour,
		},
		Reputation: ReputationConfig{
			Enabled:          true,
			DecayHalfLife:    15 * time.Minute,
			BlockThreshold:   10,
			BlockDuration:    time.Hour,
			MaxBlockDuration: 24 * time.Hour,
			ViolationHorizon: 2 * time.Hour,
			FailureWeight:    3,
			DenialWeight:     1,
			PenalizeOnDenial: true,
		},
		Events: EventLogConfig{
			Enabled:          true,
			Capacity:         4096,
			HashAccounts:     false,
			DefaultPageLimit: 50,
			MaxPageLimit:     500,
		},
		Backend: BackendConfig{
			FailureMode:      FailOpen,
			OperationTimeout: 250 * time.Millisecond,
			RetryDelay:       25 * time.Millisecond,
			BreakerFailures:  5,
			BreakerCooldown:  10 * time.Second,
			BreakerHalfOpen:  1,
			KeyPrefix:        "shield:cnt:",
			JanitorInterval:  time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// HighSecurityConfig returns a hardened preset: fail-closed degradation,
// tighter windows, a lower lockout threshold, account hashing in events and
// observability on.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()

	cfg.Limits.Rules[ClassSensitiveForm] = []Rule{
		{Scope: ScopeSource, MaxAttempts: 10, Window: 10 * time.Minute},
	}
	cfg.Limits.Rules[ClassAdminAction] = []Rule{
		{Scope: ScopeSource, MaxAttempts: 5, Window: 10 * time.Minute},
	}

	cfg.Lockout.Threshold = 3
	cfg.Lockout.BaseDuration = 10 * time.Minute

	cfg.Reputation.BlockThreshold = 6
	cfg.Reputation.DecayHalfLife = 30 * time.Minute
	cfg.Reputation.ViolationHorizon = 4 * time.Hour
	cfg.Reputation.BlockDuration = 2 * time.Hour

	cfg.Events.Capacity = 8192
	cfg.Events.HashAccounts = true

	cfg.Backend.FailureMode = FailClosed

	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true

	return cfg
}

// HighThroughputConfig returns a preset for busy multi-user frontends:
// looser windows so shared egress addresses are not over-punished, a higher
// lockout threshold with short locks, and latency histograms on.
func HighThroughputConfig() Config {
	cfg := DefaultConfig()

	cfg.Limits.Rules[ClassLogin] = []Rule{
		{Scope: ScopeSource, MaxAttempts: 30, Window: 15 * time.Minute},
		{Scope: ScopeAccount, MaxAttempts: 5, Window: 30 * time.Minute},
	}
	cfg.Limits.Rules[ClassSensitiveForm] = []Rule{
		{Scope: ScopeSource, MaxAttempts: 60, Window: 10 * time.Minute},
	}
	cfg.Limits.Rules[ClassAdminAction] = []Rule{
		{Scope: ScopeSource, MaxAttempts: 30, Window: 10 * time.Minute},
	}

	cfg.Lockout.Threshold = 10
	cfg.Lockout.BaseDuration = time.Minute
	cfg.Lockout.CapDuration = time.Hour

	cfg.Reputation.BlockThreshold = 50

	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Limits.Rules = cloneRules(cfg.Limits.Rules)
	return out
}

func cloneRules(rules map[ActionClass][]Rule) map[ActionClass][]Rule {
	if rules == nil {
		return nil
	}
	out := make(map[ActionClass][]Rule, len(rules))
	for class, classRules := range rules {
		cloned := make([]Rule, len(classRules))
		copy(cloned, classRules)
		out[class] = cloned
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Limits
	if len(c.Limits.Rules) == 0 {
		return errors.New("Limits requires at least one action class")
	}
	for class, rules := range c.Limits.Rules {
		if class == "" {
			return errors.New("Limits action class must not be empty")
		}
		if len(rules) == 0 {
			return errors.New("Limits class " + string(class) + " has no rules")
		}
		for _, r := range rules {
			if r.Scope > ScopeGlobal {
				return errors.New("Limits class " + string(class) + " has a rule with an unknown scope")
			}
			if r.MaxAttempts == 0 {
				return errors.New("Limits class " + string(class) + " has a rule with MaxAttempts = 0")
			}
			if r.Window <= 0 {
				return errors.New("Limits class " + string(class) + " has a rule with Window <= 0")
			}
		}
	}

	// Lockout
	if c.Lockout.Enabled {
		if c.Lockout.Threshold == 0 {
			return errors.New("Lockout Threshold must be > 0")
		}
		if c.Lockout.BaseDuration <= 0 {
			return errors.New("Lockout BaseDuration must be > 0")
		}
		if c.Lockout.CapDuration < c.Lockout.BaseDuration {
			return errors.New("Lockout CapDuration must be >= BaseDuration")
		}
		if c.Lockout.IdleTTL < 0 {
			return errors.New("Lockout IdleTTL must be >= 0")
		}
	}

	// Reputation
	if c.Reputation.Enabled {
		if c.Reputation.DecayHalfLife <= 0 {
			return errors.New("Reputation DecayHalfLife must be > 0")
		}
		if c.Reputation.BlockThreshold <= 0 {
			return errors.New("Reputation BlockThreshold must be > 0")
		}
		if c.Reputation.BlockDuration <= 0 {
			return errors.New("Reputation BlockDuration must be > 0")
		}
		if c.Reputation.MaxBlockDuration < c.Reputation.BlockDuration {
			return errors.New("Reputation MaxBlockDuration must be >= BlockDuration")
		}
		if c.Reputation.ViolationHorizon < c.Reputation.DecayHalfLife {
			return errors.New("Reputation ViolationHorizon must be >= DecayHalfLife")
		}
		if c.Reputation.FailureWeight <= 0 {
			return errors.New("Reputation FailureWeight must be > 0")
		}
		if c.Reputation.PenalizeOnDenial && c.Reputation.DenialWeight <= 0 {
			return errors.New("Reputation DenialWeight must be > 0 when PenalizeOnDenial is set")
		}
	}

	// Events
	if c.Events.Enabled {
		if c.Events.Capacity <= 0 {
			return errors.New("Events Capacity must be > 0")
		}
		if c.Events.DefaultPageLimit <= 0 {
			return errors.New("Events DefaultPageLimit must be > 0")
		}
		if c.Events.MaxPageLimit < c.Events.DefaultPageLimit {
			return errors.New("Events MaxPageLimit must be >= DefaultPageLimit")
		}
	}

	// Backend
	if c.Backend.FailureMode > FailClosed {
		return errors.New("Backend FailureMode is unknown")
	}
	if c.Backend.OperationTimeout <= 0 {
		return errors.New("Backend OperationTimeout must be > 0")
	}
	if c.Backend.RetryDelay < 0 {
		return errors.New("Backend RetryDelay must be >= 0")
	}
	if c.Backend.BreakerFailures == 0 {
		return errors.New("Backend BreakerFailures must be > 0")
	}
	if c.Backend.BreakerCooldown <= 0 {
		return errors.New("Backend BreakerCooldown must be > 0")
	}
	if c.Backend.JanitorInterval < 0 {
		return errors.New("Backend JanitorInterval must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
