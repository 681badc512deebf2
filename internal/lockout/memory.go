package lockout

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	failures  uint64
	last      time.Time
	until     time.Time
	expiresAt time.Time
}

// Memory is the in-process lockout store. Records expire lazily on access.
type Memory struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	now     func() time.Time
}

// NewMemory builds the in-process store. now defaults to time.Now and drives
// lazy record expiry only.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{records: make(map[string]*memoryRecord), now: now}
}

// live returns the record for account, dropping it first if its retention
// expired. Caller holds the lock.
func (m *Memory) live(account string) *memoryRecord {
	rec, ok := m.records[account]
	if !ok {
		return nil
	}
	if m.now().After(rec.expiresAt) {
		delete(m.records, account)
		return nil
	}
	return rec
}

func (m *Memory) Fail(_ context.Context, account string, now time.Time, ttl time.Duration) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.live(account)
	if rec == nil {
		rec = &memoryRecord{}
		m.records[account] = rec
	}
	rec.failures++
	rec.last = now
	rec.expiresAt = now.Add(ttl)
	return rec.failures, nil
}

func (m *Memory) Lock(_ context.Context, account string, until time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.live(account)
	if rec == nil {
		rec = &memoryRecord{}
		m.records[account] = rec
	}
	rec.until = until
	if exp := m.now().Add(ttl); exp.After(rec.expiresAt) {
		rec.expiresAt = exp
	}
	return nil
}

func (m *Memory) Get(_ context.Context, account string) (uint64, time.Time, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.live(account)
	if rec == nil {
		return 0, time.Time{}, time.Time{}, nil
	}
	return rec.failures, rec.last, rec.until, nil
}

func (m *Memory) Clear(_ context.Context, account string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.records[account]
	delete(m.records, account)
	return ok, nil
}
