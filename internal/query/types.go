package query

import (
	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

// Filter selects entries of the committed operation log.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern enables exhaustive type switches in backend
// compilers.
//
// Filter types:
//   - KindIs: operation kind equals a value
//   - NamespaceIs: operation belongs to a namespace
//   - TxIs: operation was committed by a transaction
//   - SeqAtLeast / SeqAtMost: commit seq range bounds (inclusive)
//   - And: conjunction, all filters must match
//
// A nil Filter matches the whole log.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// KindIs matches operations of one kind.
type KindIs struct {
	Kind ops.Kind
}

func (KindIs) filterNode() {}

// NamespaceIs matches operations recorded against one namespace.
type NamespaceIs struct {
	ID prov.NamespaceID
}

func (NamespaceIs) filterNode() {}

// TxIs matches operations committed by one transaction.
type TxIs struct {
	TxID string
}

func (TxIs) filterNode() {}

// SeqAtLeast matches operations with commit seq >= Seq.
type SeqAtLeast struct {
	Seq int64
}

func (SeqAtLeast) filterNode() {}

// SeqAtMost matches operations with commit seq <= Seq.
type SeqAtMost struct {
	Seq int64
}

func (SeqAtMost) filterNode() {}

// And matches operations satisfying every sub-filter. An empty And
// matches everything (vacuous truth).
type And struct {
	Filters []Filter
}

func (And) filterNode() {}
