package reputation

import (
	"context"
	"sync"
	"time"
)

type memoryViolation struct {
	at     time.Time
	weight float64
	id     string
}

type memorySource struct {
	violations []memoryViolation
	ids        map[string]struct{}
	until      time.Time
}

// Memory is the in-process reputation store. Violations are pruned lazily
// against the horizon on every access.
type Memory struct {
	mu      sync.Mutex
	sources map[string]*memorySource
}

// NewMemory builds the in-process store.
func NewMemory() *Memory {
	return &Memory{sources: make(map[string]*memorySource)}
}

func (m *Memory) Add(_ context.Context, source string, v Violation, id string, horizon time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sources[source]
	if !ok {
		rec = &memorySource{ids: make(map[string]struct{})}
		m.sources[source] = rec
	}
	rec.prune(v.At.Add(-horizon))

	if _, seen := rec.ids[id]; seen {
		return nil
	}
	rec.violations = append(rec.violations, memoryViolation{at: v.At, weight: v.Weight, id: id})
	rec.ids[id] = struct{}{}
	return nil
}

func (m *Memory) List(_ context.Context, source string, cutoff time.Time) ([]Violation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sources[source]
	if !ok {
		return nil, nil
	}
	rec.prune(cutoff)

	out := make([]Violation, 0, len(rec.violations))
	for _, v := range rec.violations {
		out = append(out, Violation{At: v.at, Weight: v.weight})
	}
	return out, nil
}

func (m *Memory) Block(_ context.Context, source string, until time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sources[source]
	if !ok {
		rec = &memorySource{ids: make(map[string]struct{})}
		m.sources[source] = rec
	}
	rec.until = until
	return nil
}

func (m *Memory) BlockedUntil(_ context.Context, source string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sources[source]
	if !ok {
		return time.Time{}, nil
	}
	return rec.until, nil
}

// prune drops violations older than cutoff. Entries arrive in time order, so
// the slice stays sorted. Caller holds the lock.
func (r *memorySource) prune(cutoff time.Time) {
	idx := 0
	for idx < len(r.violations) && r.violations[idx].at.Before(cutoff) {
		delete(r.ids, r.violations[idx].id)
		idx++
	}
	if idx > 0 {
		r.violations = append(r.violations[:0], r.violations[idx:]...)
	}
}
