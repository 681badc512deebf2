// Package window evaluates sliding-window rate-limit rules on top of the
// counter store.
//
// # Components
//
//   - [Rule] — one (scope, maxAttempts, window) bound for an action class.
//   - [Limiter] — checks and records attempts against every applicable rule.
//   - [Verdict] — the combined outcome: allowed, remaining, resetAt, retryAfter.
//
// # Design
//
// Several rules may apply to one request (a burst bound and a sustained bound,
// or a source rule next to an account rule). Check is read-only and all
// applicable rules must pass; the verdict reflects the most restrictive rule —
// the smallest remaining on allow, the soonest-resetting window on deny.
// Record advances each distinct counter exactly once per event ID and is only
// called for requests that were let through.
//
// # What this package must NOT do
//
//   - Store counters itself.
//   - Apply lockout or reputation policy.
//   - Import goShield or any sibling internal package other than store.
package window
