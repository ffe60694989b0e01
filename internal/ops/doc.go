// Package ops defines the closed set of atomic provenance operations, the
// apply/contradiction state machine that folds them into a model, and the
// address/dependency computation the ledger uses to schedule validation.
//
// ARCHITECTURE:
//
// Operations are a sealed sum type: a private marker method restricts the
// variant set, and Apply dispatches over it exhaustively. New operation
// kinds cannot silently bypass contradiction checks - an unknown variant is
// an error, and the codec round-trip tests enumerate every kind.
//
// Apply is the heart of the system. For each operation it
//  1. ensures the namespace and every referenced resource exist (open-world
//     stub creation - referencing an unknown id never fails),
//  2. checks the operation against already-recorded facts and returns a
//     Contradiction on genuine logical conflict,
//  3. mutates the model.
//
// Contradictions are checked before the gated field is mutated, but the
// ensure-exists side effects of the same operation still land. Delivery is
// at-least-once and out of order: every mutation is an idempotent set
// insert or a fill-in of a previously-unset field, so replaying an
// operation against the state it produced is always a no-op.
//
// Dependencies is a pure function from an operation's field values to the
// set of state addresses it reads or writes. It never consults a model:
// the ledger must be able to compute the read/write set before loading any
// state, so that transactions with disjoint address sets can be validated
// in parallel.
package ops
