package reputation

import (
	"context"
	"math"
	"time"
)

// Config holds the reputation policy knobs.
type Config struct {
	Enabled bool
	// DecayHalfLife is the time for a violation's contribution to halve.
	DecayHalfLife time.Duration
	// BlockThreshold is the decayed score at which a source gets blocked.
	BlockThreshold float64
	// BlockDuration is the base block extension applied per violation at or
	// over the threshold.
	BlockDuration time.Duration
	// MaxBlockDuration caps how far into the future a block may extend.
	MaxBlockDuration time.Duration
	// Horizon bounds violation retention. Entries older than this are
	// discarded; it should be several half-lives long.
	Horizon time.Duration
}

// Status is the externally visible reputation of one source.
type Status struct {
	Score        float64
	Blocked      bool
	BlockedUntil time.Time
}

// Violation is one retained penalty entry.
type Violation struct {
	At     time.Time
	Weight float64
}

// Store is the persistence contract for reputation state. Add must dedupe on
// id so a retried report penalizes once.
type Store interface {
	Add(ctx context.Context, source string, v Violation, id string, horizon time.Duration) error
	// List returns violations at or after cutoff.
	List(ctx context.Context, source string, cutoff time.Time) ([]Violation, error)
	// Block sets the blocked-until marker. ttl is the marker's remaining
	// life as seen by the caller's clock; retention follows it.
	Block(ctx context.Context, source string, until time.Time, ttl time.Duration) error
	// BlockedUntil returns the marker, zero when absent or expired.
	BlockedUntil(ctx context.Context, source string) (time.Time, error)
}

// Tracker applies the reputation policy over a Store.
type Tracker struct {
	store  Store
	cfg    Config
	lambda float64
}

// NewTracker builds a tracker. The decay rate derives from the half-life.
func NewTracker(store Store, cfg Config) *Tracker {
	lambda := 0.0
	if cfg.DecayHalfLife > 0 {
		lambda = math.Ln2 / cfg.DecayHalfLife.Seconds()
	}
	return &Tracker{store: store, cfg: cfg, lambda: lambda}
}

// Enabled reports whether the policy is active.
func (t *Tracker) Enabled() bool {
	return t != nil && t.cfg.Enabled
}

// Penalize appends a weighted violation at now and applies or extends the
// block when the decayed score reaches the threshold. id dedupes retries.
// The bool reports whether a block was applied or extended by this call.
func (t *Tracker) Penalize(ctx context.Context, source string, weight float64, id string, now time.Time) (*Status, bool, error) {
	if !t.cfg.Enabled || source == "" || weight <= 0 {
		return &Status{}, false, nil
	}

	if err := t.store.Add(ctx, source, Violation{At: now, Weight: weight}, id, t.cfg.Horizon); err != nil {
		return nil, false, err
	}

	score, err := t.Score(ctx, source, now)
	if err != nil {
		return nil, false, err
	}

	st := &Status{Score: score}
	if score < t.cfg.BlockThreshold {
		return st, false, nil
	}

	current, err := t.store.BlockedUntil(ctx, source)
	if err != nil {
		return nil, false, err
	}

	until := now.Add(t.cfg.BlockDuration)
	if current.After(until) {
		until = current
	}
	if max := now.Add(t.cfg.MaxBlockDuration); t.cfg.MaxBlockDuration > 0 && until.After(max) {
		until = max
	}

	if err := t.store.Block(ctx, source, until, until.Sub(now)); err != nil {
		return nil, false, err
	}

	st.Blocked = true
	st.BlockedUntil = until
	return st, true, nil
}

// IsBlocked reports whether the source is blocked at now.
func (t *Tracker) IsBlocked(ctx context.Context, source string, now time.Time) (bool, time.Time, error) {
	if !t.cfg.Enabled || source == "" {
		return false, time.Time{}, nil
	}
	until, err := t.store.BlockedUntil(ctx, source)
	if err != nil {
		return false, time.Time{}, err
	}
	if !until.After(now) {
		return false, time.Time{}, nil
	}
	return true, until, nil
}

// Score computes the decayed score at now from retained violations.
func (t *Tracker) Score(ctx context.Context, source string, now time.Time) (float64, error) {
	if !t.cfg.Enabled || source == "" {
		return 0, nil
	}
	violations, err := t.store.List(ctx, source, now.Add(-t.cfg.Horizon))
	if err != nil {
		return 0, err
	}
	return t.decayedSum(violations, now), nil
}

// Status combines the score and block marker at now.
func (t *Tracker) Status(ctx context.Context, source string, now time.Time) (*Status, error) {
	score, err := t.Score(ctx, source, now)
	if err != nil {
		return nil, err
	}
	blocked, until, err := t.IsBlocked(ctx, source, now)
	if err != nil {
		return nil, err
	}
	return &Status{Score: score, Blocked: blocked, BlockedUntil: until}, nil
}

func (t *Tracker) decayedSum(violations []Violation, now time.Time) float64 {
	var sum float64
	for _, v := range violations {
		age := now.Sub(v.At).Seconds()
		if age < 0 {
			age = 0
		}
		sum += v.Weight * math.Exp(-t.lambda*age)
	}
	return sum
}
