package query

import (
	"fmt"

	"github.com/provenant/provenant/internal/ops"
)

// Validate checks a filter before compilation: kinds must name a real
// operation variant, transaction ids must be non-empty, seq bounds must
// be non-negative. A nil filter is valid (match all).
//
// Validate is a pure function with no side effects.
func Validate(f Filter) error {
	if f == nil {
		return nil
	}

	switch filter := f.(type) {
	case KindIs:
		return validateKind(filter.Kind)
	case *KindIs:
		return validateKind(filter.Kind)
	case NamespaceIs, *NamespaceIs:
		return nil
	case TxIs:
		return validateTx(filter.TxID)
	case *TxIs:
		return validateTx(filter.TxID)
	case SeqAtLeast:
		return validateSeq(filter.Seq)
	case *SeqAtLeast:
		return validateSeq(filter.Seq)
	case SeqAtMost:
		return validateSeq(filter.Seq)
	case *SeqAtMost:
		return validateSeq(filter.Seq)
	case And:
		return validateAnd(filter)
	case *And:
		return validateAnd(*filter)
	default:
		return fmt.Errorf("unsupported filter type: %T", f)
	}
}

func validateKind(k ops.Kind) error {
	for _, known := range ops.Kinds {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("unknown operation kind %q", k)
}

func validateTx(txID string) error {
	if txID == "" {
		return fmt.Errorf("transaction id filter is empty")
	}
	return nil
}

func validateSeq(seq int64) error {
	if seq < 0 {
		return fmt.Errorf("negative seq bound %d", seq)
	}
	return nil
}

func validateAnd(and And) error {
	for i, sub := range and.Filters {
		if sub == nil {
			return fmt.Errorf("filter %d: nil sub-filter", i)
		}
		if err := Validate(sub); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return nil
}
