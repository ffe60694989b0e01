package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/state"
)

// FragmentWrite pairs a dirty fragment with the version generation it
// reached in the operation-state cache.
type FragmentWrite struct {
	Fragment state.Fragment
	Version  uint32
}

// Commit is one validated transaction ready to persist: its operations in
// submission order plus the fragments that structurally changed.
type Commit struct {
	TxID  string
	Seq   int64
	Ops   []ops.Operation
	Dirty []FragmentWrite
}

// CommitTransaction atomically persists a commit: the commit row, every
// operation appended to the log, and every dirty fragment upserted.
//
// Idempotent: if the transaction id was already committed nothing is
// written and inserted=false. A crash between the processor deciding to
// commit and the write landing is therefore safe to retry.
func (s *Store) CommitTransaction(ctx context.Context, commit Commit) (inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("commit transaction: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Claim the commit slot. ON CONFLICT DO NOTHING makes duplicate
	// submission a silent no-op.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO commits (tx_id, seq, op_count)
		VALUES (?, ?, ?)
		ON CONFLICT(tx_id) DO NOTHING
	`, commit.TxID, commit.Seq, len(commit.Ops))
	if err != nil {
		return false, fmt.Errorf("commit transaction: insert commit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("commit transaction: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("commit transaction: commit (existing): %w", err)
		}
		return false, nil
	}

	for idx, op := range commit.Ops {
		body, err := ops.Encode(op)
		if err != nil {
			return false, fmt.Errorf("commit transaction: encode op %d: %w", idx, err)
		}
		// Every operation's first dependency is its namespace record.
		nsIRI := string(op.Dependencies()[0].Resource)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO operations (seq, idx, tx_id, kind, namespace, body)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, commit.Seq, idx, commit.TxID, string(op.Kind()), nsIRI, string(body))
		if err != nil {
			return false, fmt.Errorf("commit transaction: append op %d: %w", idx, err)
		}
	}

	for _, fw := range commit.Dirty {
		if err := upsertFragment(ctx, tx, fw, commit.Seq); err != nil {
			return false, fmt.Errorf("commit transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: commit: %w", err)
	}

	return true, nil
}

func upsertFragment(ctx context.Context, tx *sql.Tx, fw FragmentWrite, seq int64) error {
	body, err := fw.Fragment.Model.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("serialize fragment %s: %w", fw.Fragment.Address, err)
	}

	nsIRI := ""
	if fw.Fragment.Address.Namespace != nil {
		nsIRI = string(fw.Fragment.Address.Namespace.IRI())
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fragments (address, namespace, resource, body, version, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			body = excluded.body,
			version = excluded.version,
			seq = excluded.seq
	`,
		fw.Fragment.Address.StateKey(),
		nsIRI,
		string(fw.Fragment.Address.Resource),
		string(body),
		fw.Version,
		seq,
	)
	if err != nil {
		return fmt.Errorf("upsert fragment %s: %w", fw.Fragment.Address, err)
	}
	return nil
}
