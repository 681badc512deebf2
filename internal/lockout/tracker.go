package lockout

import (
	"context"
	"time"
)

// Config holds the lockout policy knobs.
type Config struct {
	Enabled      bool
	Threshold    uint64
	BaseDuration time.Duration
	CapDuration  time.Duration
	// IdleTTL bounds how long an untouched failure record is retained.
	IdleTTL time.Duration
}

// State names the two lockout states.
type State string

const (
	// StateActive means the account may attempt actions.
	StateActive State = "active"
	// StateLocked means attempts are denied until the lock expires.
	StateLocked State = "locked"
)

// Status is the externally visible lockout record of one account.
type Status struct {
	State               State
	ConsecutiveFailures uint64
	// LockedUntil is the most recent lock expiry, possibly in the past for
	// an account whose lock lapsed without a successful attempt.
	LockedUntil   time.Time
	LastFailureAt time.Time
	// RetryAfter is the remaining lock duration; zero when Active.
	RetryAfter time.Duration
}

// Store is the persistence contract for lockout records. All operations are
// atomic per account.
type Store interface {
	// Fail increments the consecutive-failure count at now and returns the
	// new count. ttl refreshes record retention.
	Fail(ctx context.Context, account string, now time.Time, ttl time.Duration) (uint64, error)
	// Lock sets the lock expiry. ttl refreshes record retention and must
	// outlive the lock.
	Lock(ctx context.Context, account string, until time.Time, ttl time.Duration) error
	// Get returns the record fields, zero values when absent.
	Get(ctx context.Context, account string) (failures uint64, lastFailure, until time.Time, err error)
	// Clear removes the record and reports whether one existed.
	Clear(ctx context.Context, account string) (bool, error)
}

// Tracker applies the lockout policy over a Store.
type Tracker struct {
	store Store
	cfg   Config
}

// NewTracker builds a tracker with cfg applied to every account.
func NewTracker(store Store, cfg Config) *Tracker {
	return &Tracker{store: store, cfg: cfg}
}

// Enabled reports whether the policy is active.
func (t *Tracker) Enabled() bool {
	return t != nil && t.cfg.Enabled
}

// Fail records one reported failure and applies or extends the lock when the
// count is at or beyond the threshold. The bool reports whether this failure
// left the account locked.
func (t *Tracker) Fail(ctx context.Context, account string, now time.Time) (*Status, bool, error) {
	if !t.cfg.Enabled || account == "" {
		return &Status{State: StateActive}, false, nil
	}

	failures, err := t.store.Fail(ctx, account, now, t.recordTTL(0))
	if err != nil {
		return nil, false, err
	}

	st := &Status{
		State:               StateActive,
		ConsecutiveFailures: failures,
		LastFailureAt:       now,
	}

	if failures < t.cfg.Threshold {
		return st, false, nil
	}

	d := t.lockDuration(failures)
	until := now.Add(d)
	if err := t.store.Lock(ctx, account, until, t.recordTTL(d)); err != nil {
		return nil, false, err
	}

	st.State = StateLocked
	st.LockedUntil = until
	st.RetryAfter = d
	return st, true, nil
}

// Reset unconditionally clears the account's record. The bool reports whether
// a record existed.
func (t *Tracker) Reset(ctx context.Context, account string) (bool, error) {
	if !t.cfg.Enabled || account == "" {
		return false, nil
	}
	return t.store.Clear(ctx, account)
}

// Status returns the account's current state at now. An elapsed lock reads as
// Active while the failure count persists.
func (t *Tracker) Status(ctx context.Context, account string, now time.Time) (*Status, error) {
	if !t.cfg.Enabled || account == "" {
		return &Status{State: StateActive}, nil
	}

	failures, last, until, err := t.store.Get(ctx, account)
	if err != nil {
		return nil, err
	}

	st := &Status{
		State:               StateActive,
		ConsecutiveFailures: failures,
		LockedUntil:         until,
		LastFailureAt:       last,
	}
	if until.After(now) {
		st.State = StateLocked
		st.RetryAfter = until.Sub(now)
	}
	return st, nil
}

// lockDuration doubles the base for every failure beyond the threshold,
// bounded by the cap.
func (t *Tracker) lockDuration(failures uint64) time.Duration {
	d := t.cfg.BaseDuration
	for i := t.cfg.Threshold; i < failures; i++ {
		d *= 2
		if d >= t.cfg.CapDuration || d <= 0 {
			return t.cfg.CapDuration
		}
	}
	if d > t.cfg.CapDuration {
		return t.cfg.CapDuration
	}
	return d
}

// recordTTL keeps the record alive for the idle TTL, or past the lock expiry
// when the lock outlives it.
func (t *Tracker) recordTTL(lock time.Duration) time.Duration {
	ttl := t.cfg.IdleTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if lock > 0 && ttl < lock+time.Minute {
		ttl = lock + time.Minute
	}
	return ttl
}
