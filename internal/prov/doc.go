// Package prov provides the provenance data model for provenant.
//
// This package contains identifier, attribute, record, and model types only.
// All other internal packages import prov; prov imports nothing internal.
// This ensures the data model remains the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - NO float attribute values anywhere - use int64 for numbers; floats
//     break canonical serialization and therefore ledger determinism
//   - All identifiers are value types with structural equality and a total
//     order; never compared by pointer
//   - Relation fields are ordered sets keyed by full structural comparison,
//     so re-inserting an identical relation is a no-op and serialization is
//     deterministic
//   - The model is append-only: mutation primitives only add to sets or fill
//     previously-unset fields; the operation layer gates the exceptions
//     (attributes, activity endpoints) with contradiction checks
package prov
