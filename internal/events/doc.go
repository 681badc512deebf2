// Package events implements the append-only security event log.
//
// # Components
//
//   - [Event] — one immutable security record with severity and detail.
//   - [Log] — Append (synchronous) and List (filtered, paginated).
//   - [MemoryLog] — capacity-bounded ring, oldest entries dropped.
//   - [RedisLog] — capped Redis list, newest first.
//
// # Design
//
// Append completes before the triggering engine call returns, so the log is
// authoritative for what the engine decided. List serves newest-first pages
// with cursor pagination: the cursor is the ID of the last event of the
// previous page, and a cursor that has aged out of retention yields an empty
// page rather than duplicates.
//
// # What this package must NOT do
//
//   - Decide which events get appended or their severity.
//   - Mutate stored events.
//   - Import goShield or any sibling internal package other than store.
package events
