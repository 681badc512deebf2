// Package lockout implements the per-account consecutive-failure state
// machine.
//
// # Components
//
//   - [Tracker] — applies the threshold and exponential duration policy.
//   - [Store] — minimal persistence contract: Fail, Lock, Get, Clear.
//   - [Memory], [RedisStore] — the two backends.
//
// # Design
//
// An account is Active until its consecutive reported failures reach the
// threshold, then Locked for min(base * 2^(failures-threshold), cap). The
// failure count survives an expired lock, so the next failure after expiry
// locks for longer; only a reported success clears the record. Records are
// created lazily on first failure and evicted after a long idle TTL.
//
// # What this package must NOT do
//
//   - Key by anything other than the account identifier.
//   - Consult rate-limit counters or reputation scores.
//   - Import goShield or any sibling internal package other than store.
package lockout
