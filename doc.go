// Package goShield provides a rate-limiting and brute-force-protection engine
// with sliding-window counters, exponential account lockout, decaying source
// reputation, and an append-only security event log.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Callers drive an explicit two-phase protocol: [Engine.Evaluate]
// before the protected action, [Engine.Report] once its outcome is known.
//
// # Architecture boundaries
//
// goShield is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (Decision, LockoutStatus, MetricsSnapshot, etc.). All internal
// coordination — window accounting, lockout state, reputation decay, event
// storage, audit dispatch — lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or key encodings in its public
//     API beyond the narrow [CounterStore] plug point.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Authenticate anything: goShield decides whether an attempt may proceed,
//     never whether its credentials are valid.
//
// # Performance contract
//
// Evaluate and Report are the hot path. Against the in-memory backend they
// must complete without network I/O; against Redis each is allowed a bounded
// number of pipelined round-trips, every one under the configured operation
// timeout. Policy denials are values, not errors, and allocate only the
// Decision and its event record.
package goShield
