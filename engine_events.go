package goShield

import (
	"context"
	"fmt"
)

// ListEvents describes the listevents operation and its observable behavior.
//
// ListEvents may return an error when input validation, dependency calls, or security checks fail.
// ListEvents does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
//	Docs: docs/events.md
func (e *Engine) ListEvents(ctx context.Context, filter EventFilter) (*EventPage, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.events == nil {
		return nil, ErrEventsDisabled
	}

	if filter.Limit <= 0 {
		filter.Limit = e.config.Events.DefaultPageLimit
	}
	if max := e.config.Events.MaxPageLimit; max > 0 && filter.Limit > max {
		filter.Limit = max
	}
	// Callers filter by the raw account value; translate it to the stored
	// form when hashing is on.
	if filter.Account != "" && e.config.Events.HashAccounts {
		filter.Account = hashIdentifier(filter.Account)
	}

	page, err := e.events.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventLogUnavailable, err)
	}
	return page, nil
}
