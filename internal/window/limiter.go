package window

import (
	"context"
	"math"
	"time"

	"github.com/MrEthical07/goShield/internal/store"
)

// Scope selects which request identifier a rule keys its counter by.
type Scope uint8

const (
	// ScopeSource keys by the request's source address.
	ScopeSource Scope = iota
	// ScopeAccount keys by the target account identifier.
	ScopeAccount
	// ScopeGlobal keys one shared counter for the whole action class.
	ScopeGlobal
)

// String returns the canonical scope name.
func (s Scope) String() string {
	switch s {
	case ScopeSource:
		return "source-address"
	case ScopeAccount:
		return "account"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

func (s Scope) keyPrefix() string {
	switch s {
	case ScopeSource:
		return "src"
	case ScopeAccount:
		return "acct"
	case ScopeGlobal:
		return "glob"
	default:
		return "unk"
	}
}

// Rule bounds one scope of an action class to MaxAttempts per Window.
type Rule struct {
	Scope       Scope
	MaxAttempts uint64
	Window      time.Duration
}

// Keys carries the request identifiers rules can key by. An empty Account
// skips account-scoped rules; the global scope needs no identifier.
type Keys struct {
	Source  string
	Account string
}

// Verdict is the combined outcome over every applicable rule.
type Verdict struct {
	Allowed bool
	// Tracked is false when no configured rule applied to the request.
	Tracked bool
	// Remaining is the smallest remaining budget among applicable rules.
	Remaining uint64
	// ResetAt is when the most restrictive window frees one attempt. Zero
	// when untracked or when the tightest window is empty.
	ResetAt time.Time
	// RetryAfter is set on denial: time until the soonest-resetting window
	// admits an attempt again. Never below one second.
	RetryAfter time.Duration
}

// Limiter evaluates the per-class rule tables against a counter store.
type Limiter struct {
	store    store.Store
	rules    map[string][]Rule
	horizons map[string]time.Duration
}

// NewLimiter builds a limiter over st. The horizon of each action class is
// the widest window among its rules and bounds counter retention.
func NewLimiter(st store.Store, rules map[string][]Rule) *Limiter {
	horizons := make(map[string]time.Duration, len(rules))
	for class, classRules := range rules {
		var widest time.Duration
		for _, r := range classRules {
			if r.Window > widest {
				widest = r.Window
			}
		}
		horizons[class] = widest
	}
	return &Limiter{store: st, rules: rules, horizons: horizons}
}

// Classes reports whether the action class has at least one configured rule.
func (l *Limiter) Classes() map[string]int {
	out := make(map[string]int, len(l.rules))
	for class, classRules := range l.rules {
		out[class] = len(classRules)
	}
	return out
}

// Horizon returns the retention horizon for the class.
func (l *Limiter) Horizon(class string) time.Duration {
	return l.horizons[class]
}

func (l *Limiter) identifier(scope Scope, keys Keys) (string, bool) {
	switch scope {
	case ScopeSource:
		return keys.Source, keys.Source != ""
	case ScopeAccount:
		return keys.Account, keys.Account != ""
	case ScopeGlobal:
		return "*", true
	default:
		return "", false
	}
}

func (l *Limiter) storeKey(scope Scope, class, id string) store.Key {
	return store.Key{
		Name:    scope.keyPrefix() + ":" + class + ":" + id,
		Horizon: l.horizons[class],
	}
}

// Check evaluates every applicable rule read-only. All rules must pass; the
// verdict carries the most restrictive view. Denied requests consume no
// budget.
func (l *Limiter) Check(ctx context.Context, class string, keys Keys, now time.Time) (*Verdict, error) {
	v := &Verdict{Allowed: true, Remaining: math.MaxUint64}

	var (
		denied       bool
		soonestReset time.Time
	)

	for _, rule := range l.rules[class] {
		id, ok := l.identifier(rule.Scope, keys)
		if !ok {
			continue
		}
		key := l.storeKey(rule.Scope, class, id)

		count, err := l.store.Count(ctx, key, rule.Window, now)
		if err != nil {
			return nil, err
		}

		if count >= rule.MaxAttempts {
			resetAt, err := l.resetAt(ctx, key, rule, now)
			if err != nil {
				return nil, err
			}
			if !denied || resetAt.Before(soonestReset) {
				soonestReset = resetAt
			}
			denied = true
			v.Tracked = true
			continue
		}

		remaining := rule.MaxAttempts - count
		if remaining < v.Remaining {
			v.Remaining = remaining
			if count > 0 {
				resetAt, err := l.resetAt(ctx, key, rule, now)
				if err != nil {
					return nil, err
				}
				v.ResetAt = resetAt
			} else {
				v.ResetAt = time.Time{}
			}
		}
		v.Tracked = true
	}

	if denied {
		v.Allowed = false
		v.Remaining = 0
		v.ResetAt = soonestReset
		v.RetryAfter = soonestReset.Sub(now)
		if v.RetryAfter < time.Second {
			v.RetryAfter = time.Second
		}
		return v, nil
	}

	if !v.Tracked {
		v.Remaining = 0
	}
	return v, nil
}

// resetAt is when the rule's window admits one more attempt: the moment its
// oldest in-window hit ages out.
func (l *Limiter) resetAt(ctx context.Context, key store.Key, rule Rule, now time.Time) (time.Time, error) {
	oldest, ok, err := l.store.Oldest(ctx, key, rule.Window, now)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return now.Add(rule.Window), nil
	}
	return oldest.Add(rule.Window), nil
}

// Record advances every applicable counter once. Rules sharing a scope share
// a counter, so each distinct key is incremented a single time per event ID.
// A partial failure is safe to retry with the same event ID: counters that
// already hold it stay unchanged.
func (l *Limiter) Record(ctx context.Context, class string, keys Keys, eventID string, now time.Time) error {
	seen := make(map[string]struct{}, 2)

	for _, rule := range l.rules[class] {
		id, ok := l.identifier(rule.Scope, keys)
		if !ok {
			continue
		}
		key := l.storeKey(rule.Scope, class, id)
		if _, dup := seen[key.Name]; dup {
			continue
		}
		seen[key.Name] = struct{}{}

		if _, err := l.store.Increment(ctx, key, eventID, now); err != nil {
			return err
		}
	}
	return nil
}
