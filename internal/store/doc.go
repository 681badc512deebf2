// Package store implements the attempt-counter backends for goShield rate
// limiting.
//
// # Components
//
//   - [Store] — narrow counter contract: Increment, Count, Oldest, EvictExpired.
//   - [Memory] — mutex-guarded in-process backend with an optional janitor.
//   - [Redis] — sorted-set backend, one set per key, pruned on every write.
//   - [Guard] — shared wrapper adding per-operation deadlines, a single retry
//     and a circuit breaker to every Redis round trip.
//
// # Design
//
// A key is a rendered (scope, class, identifier) name plus the widest window
// configured for its action class (the horizon). Each hit carries a
// caller-supplied event ID; recording the same ID twice is a no-op, which makes
// retried reports safe after an ambiguous failure. Entries older than the
// horizon are purged lazily on reads and writes and amortized by EvictExpired.
//
// # Architecture boundaries
//
// This package owns raw per-key counting only. Rule tables, window selection
// and allow/deny verdicts live in internal/window.
//
// # What this package must NOT do
//
//   - Interpret action classes or scopes.
//   - Decide whether a count exceeds a limit.
//   - Import goShield or any sibling internal package.
package store
