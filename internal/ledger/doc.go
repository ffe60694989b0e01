// Package ledger is the host-side transaction processor around the
// provenance core.
//
// A Transaction is an ordered batch of operations validated as a unit:
// the processor loads the stored fragments for the batch's dependency
// set, folds them into a working model, applies the operations in
// submission order, and persists only the fragments that structurally
// changed, together with the operations themselves on the append-only
// log. The first contradiction rejects the whole transaction; nothing
// is persisted.
//
// Commits are stamped with a monotonic logical clock, never wall time.
// The Scheduler partitions independent transactions into conflict
// groups by address overlap and validates disjoint groups concurrently.
package ledger
