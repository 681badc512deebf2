package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable indicates the counter backend is unreachable after the
	// configured retry.
	ErrUnavailable = errors.New("counter backend unavailable")
)

// Key identifies one attempt counter. Name is the rendered
// scope:class:identifier tuple; Horizon is the widest window configured for
// the key's action class and bounds how long entries are retained.
type Key struct {
	Name    string
	Horizon time.Duration
}

// Store is the narrow contract shared by all counter backends.
//
// Implementations must keep concurrent increments on the same key
// linearizable: two racing Increment calls may not lose an update, and a
// completed Increment is visible to every later Count on that key.
type Store interface {
	// Increment records a hit at now and returns the number of hits still
	// inside the key's horizon, the new hit included. Re-recording an
	// eventID that is already present leaves the counter unchanged.
	Increment(ctx context.Context, key Key, eventID string, now time.Time) (uint64, error)

	// Count returns the number of hits within [now-window, now].
	Count(ctx context.Context, key Key, window time.Duration, now time.Time) (uint64, error)

	// Oldest returns the timestamp of the oldest hit still inside
	// [now-window, now]. The bool is false when the window is empty.
	Oldest(ctx context.Context, key Key, window time.Duration, now time.Time) (time.Time, bool, error)

	// EvictExpired drops entries older than their key's horizon. Backends
	// that expire entries server-side may treat this as a no-op.
	EvictExpired(ctx context.Context, now time.Time) error

	// Ping reports backend reachability.
	Ping(ctx context.Context) error

	// Close releases backend resources and stops background work.
	Close() error
}
