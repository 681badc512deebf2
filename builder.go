package goShield

import (
	"github.com/redis/go-redis/v9"

	internalevents "github.com/MrEthical07/goShield/internal/events"
	internallockout "github.com/MrEthical07/goShield/internal/lockout"
	internalreputation "github.com/MrEthical07/goShield/internal/reputation"
	internalstore "github.com/MrEthical07/goShield/internal/store"
	"github.com/MrEthical07/goShield/internal/window"
)

// Builder defines a public type used by goShield APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config       Config
	redis        redis.UniversalClient
	counterStore CounterStore
	clock        Clock
	auditSink    AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCounterStore overrides the attempt-counter backend with a caller
// implementation. Lockout, reputation and event state still follow the
// Redis-or-memory selection.
func (b *Builder) WithCounterStore(store CounterStore) *Builder {
	b.counterStore = store
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// WithClock may return an error when input validation, dependency calls, or security checks fail.
// WithClock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithFailureMode describes the withfailuremode operation and its observable behavior.
//
// WithFailureMode may return an error when input validation, dependency calls, or security checks fail.
// WithFailureMode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithFailureMode(mode FailureMode) *Builder {
	b.config.Backend.FailureMode = mode
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderReused
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clock := b.clock
	if clock == nil {
		clock = SystemClock()
	}

	// -------- BACKEND SELECTION --------
	// One guard fronting every Redis-backed component: backend health is
	// judged once, not once per subsystem.
	var guard *internalstore.Guard
	if b.redis != nil {
		guard = internalstore.NewGuard(internalstore.GuardConfig{
			Timeout:         cfg.Backend.OperationTimeout,
			RetryDelay:      cfg.Backend.RetryDelay,
			BreakerFailures: cfg.Backend.BreakerFailures,
			BreakerCooldown: cfg.Backend.BreakerCooldown,
			BreakerHalfOpen: cfg.Backend.BreakerHalfOpen,
		})
	}

	counters := b.counterStore
	if counters == nil {
		if b.redis != nil {
			counters = internalstore.NewRedis(b.redis, guard, internalstore.RedisConfig{
				KeyPrefix: cfg.Backend.KeyPrefix,
			})
		} else {
			counters = internalstore.NewMemory(internalstore.MemoryConfig{
				JanitorInterval: cfg.Backend.JanitorInterval,
				Now:             clock.Now,
			})
		}
	}

	var lockStore internallockout.Store
	var repStore internalreputation.Store
	if b.redis != nil {
		lockStore = internallockout.NewRedisStore(b.redis, guard)
		repStore = internalreputation.NewRedisStore(b.redis, guard)
	} else {
		lockStore = internallockout.NewMemory(clock.Now)
		repStore = internalreputation.NewMemory()
	}

	var eventLog internalevents.Log
	if cfg.Events.Enabled {
		if b.redis != nil {
			eventLog = internalevents.NewRedisLog(b.redis, guard, cfg.Events.Capacity)
		} else {
			eventLog = internalevents.NewMemoryLog(cfg.Events.Capacity)
		}
	}

	// -------- POLICY WIRING --------
	rules := make(map[string][]window.Rule, len(cfg.Limits.Rules))
	for class, classRules := range cfg.Limits.Rules {
		rules[string(class)] = classRules
	}

	engine := &Engine{
		config:        cloneConfig(cfg),
		clock:         clock,
		store:         counters,
		limiter:       window.NewLimiter(counters, rules),
		events:        eventLog,
		sharedBackend: b.redis != nil && b.counterStore == nil,
	}

	engine.lockouts = internallockout.NewTracker(lockStore, internallockout.Config{
		Enabled:      cfg.Lockout.Enabled,
		Threshold:    cfg.Lockout.Threshold,
		BaseDuration: cfg.Lockout.BaseDuration,
		CapDuration:  cfg.Lockout.CapDuration,
		IdleTTL:      cfg.Lockout.IdleTTL,
	})
	engine.reputation = internalreputation.NewTracker(repStore, internalreputation.Config{
		Enabled:          cfg.Reputation.Enabled,
		DecayHalfLife:    cfg.Reputation.DecayHalfLife,
		BlockThreshold:   cfg.Reputation.BlockThreshold,
		BlockDuration:    cfg.Reputation.BlockDuration,
		MaxBlockDuration: cfg.Reputation.MaxBlockDuration,
		Horizon:          cfg.Reputation.ViolationHorizon,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
