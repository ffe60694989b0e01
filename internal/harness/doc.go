// Package harness runs YAML conformance scenarios against the ledger.
//
// A scenario declares a namespace, a sequence of transaction steps (each
// a batch of operations with an expected outcome), and assertions on the
// final replayed model. Execution is fully deterministic: a fresh
// in-memory store per scenario, a sequential transaction-id generator,
// and the logical clock. The resulting trace serializes to canonical
// JSON, so golden files compare byte for byte across runs.
package harness
