// Package reputation tracks decaying per-source penalty scores and temporary
// source blocks.
//
// # Components
//
//   - [Tracker] — weighted penalties, lazy exponential decay, block policy.
//   - [Store] — persistence contract for violations and the block marker.
//   - [Memory], [RedisStore] — the two backends.
//
// # Design
//
// No hot score is stored. Each penalty appends a weighted violation entry;
// the score at any instant is the sum of entry weights decayed by
// exp(-ln2/halfLife * age), recomputed from retained entries on read. That
// keeps the score re-derivable at any time without drift. Entries age out of
// a retention horizon chosen so that fully decayed entries no longer matter.
//
// Crossing the block threshold sets a blocked-until marker. Further
// violations while blocked extend the marker — never stack it — up to a cap
// measured from the time of the violation.
//
// # What this package must NOT do
//
//   - Key by account; sources only.
//   - Decide which actions are violations or what they weigh.
//   - Import goShield or any sibling internal package other than store.
package reputation
