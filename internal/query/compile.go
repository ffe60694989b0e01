package query

import (
	"fmt"
	"strings"
)

// Compiled is a parameterized SQL fragment ready for the store.
type Compiled struct {
	// Where is the WHERE-clause body (no leading WHERE keyword).
	Where string
	// Params holds one value per ? placeholder, in order.
	Params []any
}

// Compile converts a filter to a parameterized SQL WHERE clause for the
// operations table.
//
// Values are never interpolated into the SQL text - every literal
// becomes a ? placeholder. Callers append the deterministic ORDER BY;
// the clause itself is order-independent.
func Compile(f Filter) (Compiled, error) {
	if err := Validate(f); err != nil {
		return Compiled{}, err
	}
	return compileFilter(f)
}

func compileFilter(f Filter) (Compiled, error) {
	if f == nil {
		return Compiled{Where: "1 = 1"}, nil
	}

	switch filter := f.(type) {
	case KindIs:
		return Compiled{Where: "kind = ?", Params: []any{string(filter.Kind)}}, nil
	case *KindIs:
		return compileFilter(*filter)
	case NamespaceIs:
		return Compiled{Where: "namespace = ?", Params: []any{string(filter.ID.IRI())}}, nil
	case *NamespaceIs:
		return compileFilter(*filter)
	case TxIs:
		return Compiled{Where: "tx_id = ?", Params: []any{filter.TxID}}, nil
	case *TxIs:
		return compileFilter(*filter)
	case SeqAtLeast:
		return Compiled{Where: "seq >= ?", Params: []any{filter.Seq}}, nil
	case *SeqAtLeast:
		return compileFilter(*filter)
	case SeqAtMost:
		return Compiled{Where: "seq <= ?", Params: []any{filter.Seq}}, nil
	case *SeqAtMost:
		return compileFilter(*filter)
	case And:
		return compileAnd(filter)
	case *And:
		return compileAnd(*filter)
	default:
		return Compiled{}, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func compileAnd(and And) (Compiled, error) {
	if len(and.Filters) == 0 {
		return Compiled{Where: "1 = 1"}, nil
	}

	parts := make([]string, 0, len(and.Filters))
	var params []any
	for _, sub := range and.Filters {
		c, err := compileFilter(sub)
		if err != nil {
			return Compiled{}, err
		}
		parts = append(parts, c.Where)
		params = append(params, c.Params...)
	}
	return Compiled{Where: strings.Join(parts, " AND "), Params: params}, nil
}
