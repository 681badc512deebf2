package events

import (
	"context"
	"time"
)

// Severity grades how alarming an event is.
type Severity string

const (
	// SeverityInfo marks routine decisions and successful reports.
	SeverityInfo Severity = "info"
	// SeverityWarning marks denials and reported failures.
	SeverityWarning Severity = "warning"
	// SeverityError marks blocks, lock transitions and degraded operation.
	SeverityError Severity = "error"
	// SeverityCritical marks conditions needing immediate attention.
	SeverityCritical Severity = "critical"
)

// Event is one immutable security record.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	Severity  Severity          `json:"severity"`
	Source    string            `json:"source,omitempty"`
	Account   string            `json:"account,omitempty"`
	Class     string            `json:"class,omitempty"`
	Decision  string            `json:"decision,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Filter narrows a List call. Zero-valued fields match everything.
type Filter struct {
	Source   string
	Account  string
	Class    string
	Type     string
	Reason   string
	Severity Severity
	// Since and Until bound the timestamp inclusively.
	Since time.Time
	Until time.Time
	// Cursor is the ID of the last event of the previous page; the next
	// page holds strictly older events.
	Cursor string
	Limit  int
}

// Page is one newest-first slice of matching events.
type Page struct {
	Events []Event
	// NextCursor requests the following page; empty when exhausted.
	NextCursor string
}

// Log is the append-only event log contract.
type Log interface {
	// Append stores the event before returning.
	Append(ctx context.Context, e Event) error
	// List returns matching events newest first.
	List(ctx context.Context, f Filter) (*Page, error)
	// Close releases backend resources.
	Close() error
}

func (f Filter) matches(e Event) bool {
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Account != "" && e.Account != f.Account {
		return false
	}
	if f.Class != "" && e.Class != f.Class {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Reason != "" && e.Reason != f.Reason {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}
