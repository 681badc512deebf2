// Package audit implements the async mirror of goShield security events for
// external consumers.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — structured audit record with timestamp, type, source, account, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide
// which events to emit — that responsibility belongs to the Engine. The
// synchronous, authoritative record is the security event log in
// internal/events; this mirror exists so operators can stream decisions
// without querying it.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on protection policy.
//   - Import goShield or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
