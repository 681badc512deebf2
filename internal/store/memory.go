package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryConfig controls the in-process counter backend.
type MemoryConfig struct {
	// JanitorInterval is how often expired entries are swept in the
	// background. Zero disables the janitor; entries are then purged only
	// lazily on access.
	JanitorInterval time.Duration
	// Now supplies the janitor's clock. Defaults to time.Now.
	Now func() time.Time
}

type memoryHit struct {
	id string
	at int64
}

type memoryCounter struct {
	hits    []memoryHit
	ids     map[string]struct{}
	horizon time.Duration
}

// Memory is a mutex-guarded counter backend for single-process deployments
// and tests. Hits are kept ordered by timestamp per key and pruned against
// the key's horizon on every access.
type Memory struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemory builds the in-process backend and starts its janitor when
// configured.
func NewMemory(cfg MemoryConfig) *Memory {
	m := &Memory{
		counters: make(map[string]*memoryCounter),
		done:     make(chan struct{}),
	}

	if cfg.JanitorInterval > 0 {
		now := cfg.Now
		if now == nil {
			now = time.Now
		}
		m.wg.Add(1)
		go m.janitor(cfg.JanitorInterval, now)
	}

	return m
}

func (m *Memory) janitor(interval time.Duration, now func() time.Time) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = m.EvictExpired(context.Background(), now())
		case <-m.done:
			return
		}
	}
}

// Increment records a hit and returns the in-horizon count including it.
// A previously seen eventID leaves the counter unchanged.
func (m *Memory) Increment(_ context.Context, key Key, eventID string, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key.Name]
	if !ok {
		c = &memoryCounter{ids: make(map[string]struct{})}
		m.counters[key.Name] = c
	}
	c.horizon = key.Horizon
	c.prune(now)

	if _, seen := c.ids[eventID]; seen {
		return uint64(len(c.hits)), nil
	}

	at := now.UnixNano()
	c.hits = append(c.hits, memoryHit{id: eventID, at: at})
	// Callers feed monotone clocks; repair ordering in the rare case they
	// do not.
	if n := len(c.hits); n > 1 && c.hits[n-2].at > at {
		sort.Slice(c.hits, func(i, j int) bool { return c.hits[i].at < c.hits[j].at })
	}
	c.ids[eventID] = struct{}{}

	return uint64(len(c.hits)), nil
}

// Count returns the number of hits within [now-window, now].
func (m *Memory) Count(_ context.Context, key Key, window time.Duration, now time.Time) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key.Name]
	if !ok {
		return 0, nil
	}
	c.horizon = key.Horizon
	c.prune(now)

	return uint64(len(c.hits) - c.searchCutoff(now, window)), nil
}

// Oldest returns the timestamp of the oldest hit within [now-window, now].
func (m *Memory) Oldest(_ context.Context, key Key, window time.Duration, now time.Time) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key.Name]
	if !ok {
		return time.Time{}, false, nil
	}
	c.horizon = key.Horizon
	c.prune(now)

	idx := c.searchCutoff(now, window)
	if idx >= len(c.hits) {
		return time.Time{}, false, nil
	}
	return time.Unix(0, c.hits[idx].at), true, nil
}

// EvictExpired sweeps every counter and removes keys that are fully expired.
func (m *Memory) EvictExpired(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, c := range m.counters {
		c.prune(now)
		if len(c.hits) == 0 {
			delete(m.counters, name)
		}
	}
	return nil
}

// Ping always succeeds for the in-process backend.
func (m *Memory) Ping(context.Context) error { return nil }

// Close stops the janitor.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
	return nil
}

// prune drops hits older than the counter's horizon. Caller holds the lock.
func (c *memoryCounter) prune(now time.Time) {
	if c.horizon <= 0 {
		return
	}
	cutoff := now.Add(-c.horizon).UnixNano()
	idx := sort.Search(len(c.hits), func(i int) bool { return c.hits[i].at >= cutoff })
	if idx == 0 {
		return
	}
	for _, h := range c.hits[:idx] {
		delete(c.ids, h.id)
	}
	c.hits = append(c.hits[:0], c.hits[idx:]...)
}

// searchCutoff returns the index of the first hit inside the window.
// Caller holds the lock.
func (c *memoryCounter) searchCutoff(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window).UnixNano()
	return sort.Search(len(c.hits), func(i int) bool { return c.hits[i].at >= cutoff })
}
