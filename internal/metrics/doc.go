// Package metrics implements the allocation-free counter and latency
// histogram registry behind goShield observability.
//
// # Design
//
// Each counter occupies its own cache-line-padded uint64 slot and is bumped
// with [sync/atomic.AddUint64]. Latency histograms hold 8 fixed buckets
// spanning ≤5ms through +Inf. Neither allocates on the write path.
//
// # Architecture boundaries
//
// Metric storage and snapshot creation live here; rendering lives in
// metrics/export/, which consumes Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import goShield or any sibling package.
//   - Expose global metric registries.
package metrics
