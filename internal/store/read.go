package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/state"
)

// ReadFragment loads the stored fragment for one address.
// found=false (with no error) means the address has never been written.
func (s *Store) ReadFragment(ctx context.Context, addr ops.Address) (frag state.Fragment, version uint32, found bool, err error) {
	var body string
	err = s.db.QueryRowContext(ctx, `
		SELECT body, version
		FROM fragments
		WHERE address = ?
	`, addr.StateKey()).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return state.Fragment{}, 0, false, nil
	}
	if err != nil {
		return state.Fragment{}, 0, false, fmt.Errorf("read fragment %s: %w", addr, err)
	}

	model, err := prov.UnmarshalModel([]byte(body))
	if err != nil {
		return state.Fragment{}, 0, false, fmt.Errorf("read fragment %s: %w", addr, err)
	}
	return state.Fragment{Address: addr, Model: model}, version, true, nil
}

// ReadFragments loads the stored fragments for a dependency set. Addresses
// that were never written are simply absent from the result; callers treat
// them as empty state (open world).
func (s *Store) ReadFragments(ctx context.Context, addrs []ops.Address) ([]state.Fragment, error) {
	frags := make([]state.Fragment, 0, len(addrs))
	for _, addr := range ops.DedupAddresses(addrs) {
		frag, _, found, err := s.ReadFragment(ctx, addr)
		if err != nil {
			return nil, err
		}
		if found {
			frags = append(frags, frag)
		}
	}
	return frags, nil
}

// HasCommit reports whether a transaction id was already committed.
func (s *Store) HasCommit(ctx context.Context, txID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM commits WHERE tx_id = ?
	`, txID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check commit: %w", err)
	}
	return count > 0, nil
}

// LastSeq returns the highest committed logical seq, or 0 when the log is
// empty. The processor resumes its clock from here after a restart.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM commits
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}

// LoggedOperation is one entry of the committed operation log.
type LoggedOperation struct {
	Seq  int64
	Idx  int64
	TxID string
	Op   ops.Operation
}

// ReadAllOperations returns the whole committed log in deterministic
// replay order: ORDER BY seq ASC, idx ASC.
func (s *Store) ReadAllOperations(ctx context.Context) ([]LoggedOperation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, idx, tx_id, body
		FROM operations
		ORDER BY seq ASC, idx ASC, tx_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	return scanLoggedOperations(rows)
}

// ReadNamespaceOperations returns the committed log restricted to one
// namespace, in replay order.
func (s *Store) ReadNamespaceOperations(ctx context.Context, ns prov.NamespaceID) ([]LoggedOperation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, idx, tx_id, body
		FROM operations
		WHERE namespace = ?
		ORDER BY seq ASC, idx ASC, tx_id COLLATE BINARY ASC
	`, string(ns.IRI()))
	if err != nil {
		return nil, fmt.Errorf("query namespace operations: %w", err)
	}
	defer rows.Close()

	return scanLoggedOperations(rows)
}

func scanLoggedOperations(rows *sql.Rows) ([]LoggedOperation, error) {
	var logged []LoggedOperation
	for rows.Next() {
		var entry LoggedOperation
		var body string
		if err := rows.Scan(&entry.Seq, &entry.Idx, &entry.TxID, &body); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op, err := ops.Decode([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode logged operation seq=%d idx=%d: %w", entry.Seq, entry.Idx, err)
		}
		entry.Op = op
		logged = append(logged, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	if logged == nil {
		logged = []LoggedOperation{}
	}
	return logged, nil
}

// ReadNamespaceFragments loads every stored fragment belonging to a
// namespace (including the namespace record itself), ordered by resource.
func (s *Store) ReadNamespaceFragments(ctx context.Context, ns prov.NamespaceID) ([]state.Fragment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT namespace, resource, body
		FROM fragments
		WHERE namespace = ? OR (namespace = '' AND resource = ?)
		ORDER BY seq ASC, resource COLLATE BINARY ASC
	`, string(ns.IRI()), string(ns.IRI()))
	if err != nil {
		return nil, fmt.Errorf("query namespace fragments: %w", err)
	}
	defer rows.Close()

	var frags []state.Fragment
	for rows.Next() {
		var nsIRI, resource, body string
		if err := rows.Scan(&nsIRI, &resource, &body); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		model, err := prov.UnmarshalModel([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decode fragment %s: %w", resource, err)
		}

		addr := ops.Address{Resource: prov.IRI(resource)}
		if nsIRI != "" {
			n := ns
			addr.Namespace = &n
		}
		frags = append(frags, state.Fragment{Address: addr, Model: model})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}

	if frags == nil {
		frags = []state.Fragment{}
	}
	return frags, nil
}
