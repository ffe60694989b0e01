package store

import (
	"context"
	"fmt"

	"github.com/provenant/provenant/internal/query"
)

// QueryOperations returns the committed log entries matching a filter,
// in deterministic replay order. A nil filter returns the whole log.
func (s *Store) QueryOperations(ctx context.Context, f query.Filter) ([]LoggedOperation, error) {
	compiled, err := query.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("compile log query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT seq, idx, tx_id, body
		FROM operations
		WHERE %s
		ORDER BY seq ASC, idx ASC, tx_id COLLATE BINARY ASC
	`, compiled.Where), compiled.Params...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	return scanLoggedOperations(rows)
}
