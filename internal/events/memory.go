package events

import (
	"context"
	"sync"
)

const defaultCapacity = 1024

// MemoryLog is a fixed-capacity ring of events. Appends overwrite the oldest
// entry once the ring is full.
type MemoryLog struct {
	mu      sync.Mutex
	entries []Event
	next    int
	count   int
}

// NewMemoryLog builds a ring with the given capacity, defaulting when
// non-positive.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryLog{entries: make([]Event, capacity)}
}

func (m *MemoryLog) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.count < len(m.entries) {
		m.count++
	}
	return nil
}

func (m *MemoryLog) List(_ context.Context, f Filter) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = m.count
	}

	page := &Page{}
	skipping := f.Cursor != ""
	cursorSeen := false

	for i := 0; i < m.count; i++ {
		idx := (m.next - 1 - i + len(m.entries)) % len(m.entries)
		e := m.entries[idx]

		if skipping {
			if e.ID == f.Cursor {
				skipping = false
				cursorSeen = true
			}
			continue
		}
		if !f.matches(e) {
			continue
		}

		page.Events = append(page.Events, e)
		if len(page.Events) == limit {
			if i+1 < m.count {
				page.NextCursor = e.ID
			}
			break
		}
	}

	// A cursor that aged out of the ring points past everything retained.
	if skipping && !cursorSeen {
		return &Page{}, nil
	}
	return page, nil
}

func (m *MemoryLog) Close() error { return nil }
