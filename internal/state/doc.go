// Package state decomposes a provenance model into per-address snapshot
// fragments and tracks which addresses actually changed across an apply
// pass.
//
// A fragment is the minimal self-contained model for one address: the
// resource's own record plus the relations its snapshot carries. Merging
// every fragment of a model back together reproduces the model exactly.
//
// The OperationState cache holds the current Version per address. Writes
// bump a version only when the canonical bytes changed, so "dirty" always
// means "structurally different", never "touched". Persistence layers read
// the dirty set to decide what to flush.
package state
