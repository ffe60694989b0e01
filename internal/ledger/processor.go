package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/state"
	"github.com/provenant/provenant/internal/store"
)

// Processor validates transactions against stored state and commits the
// ones that hold.
//
// Each Process call is self-contained: it loads exactly the fragments the
// transaction depends on, never the whole graph. Mutating the store
// happens through a single atomic commit at the end; a rejected
// transaction leaves no trace.
type Processor struct {
	store  *store.Store
	clock  *Clock
	logger *slog.Logger
}

// NewProcessor creates a processor over an opened store. A nil logger
// falls back to slog.Default().
func NewProcessor(s *store.Store, clock *Clock, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: s, clock: clock, logger: logger}
}

// Result reports what a Process call committed.
type Result struct {
	TxID     string
	Seq      int64
	Inserted bool // false when the id was already committed
	Dirty    []ops.Address
}

// Process validates and commits one transaction.
//
// The sequence is: idempotency check, load the dependency fragments, fold
// them into a working model, apply the operations in submission order,
// snapshot, and persist the structurally changed fragments plus the
// operation log entries in one atomic store transaction.
//
// A contradiction anywhere in the batch rejects the whole transaction and
// persists nothing; the error wraps the *ops.Contradiction.
func (p *Processor) Process(ctx context.Context, tx Transaction) (Result, error) {
	if tx.ID == "" {
		return Result{}, errors.New("transaction id is empty")
	}
	if len(tx.Ops) == 0 {
		return Result{}, &ProcessError{TxID: tx.ID, Err: errors.New("transaction has no operations")}
	}

	committed, err := p.store.HasCommit(ctx, tx.ID)
	if err != nil {
		return Result{}, &ProcessError{TxID: tx.ID, Err: err}
	}
	if committed {
		p.logger.Info("transaction already committed, skipping",
			"tx_id", tx.ID)
		return Result{TxID: tx.ID, Inserted: false}, nil
	}

	deps := tx.Dependencies()
	cache := state.NewOperationState()
	baseVersions := make(map[string]uint32, len(deps))
	for _, addr := range deps {
		frag, version, found, err := p.store.ReadFragment(ctx, addr)
		if err != nil {
			return Result{}, &ProcessError{TxID: tx.ID, Err: err}
		}
		if !found {
			continue // never written: empty state, open world
		}
		baseVersions[addr.StateKey()] = version
		if err := cache.UpdateState(frag); err != nil {
			return Result{}, &ProcessError{TxID: tx.ID, Err: err}
		}
	}

	working := prov.NewModel()
	for _, input := range cache.Input() {
		working.Merge(input)
	}

	for i, op := range tx.Ops {
		if err := ops.Apply(working, op); err != nil {
			p.logger.Warn("transaction rejected",
				"tx_id", tx.ID,
				"op", string(op.Kind()),
				"op_index", i,
				"error", err)
			return Result{}, &ProcessError{
				TxID: tx.ID,
				Err:  fmt.Errorf("apply %s (operation %d): %w", op.Kind(), i, err),
			}
		}
	}

	// Every address the snapshot produces is in the dependency set, so the
	// cache can tell changed fragments from restated ones.
	for _, frag := range state.Snapshot(working) {
		if err := cache.Write(frag); err != nil {
			return Result{}, &ProcessError{TxID: tx.ID, Err: err}
		}
	}

	dirty := cache.Dirty()
	writes := make([]store.FragmentWrite, 0, len(dirty))
	addrs := make([]ops.Address, 0, len(dirty))
	for _, frag := range dirty {
		v, ok := cache.Version(frag.Address)
		if !ok {
			return Result{}, &ProcessError{
				TxID: tx.ID,
				Err:  fmt.Errorf("dirty address %s has no cached version", frag.Address),
			}
		}
		writes = append(writes, store.FragmentWrite{
			Fragment: frag,
			Version:  baseVersions[frag.Address.StateKey()] + v.Seq,
		})
		addrs = append(addrs, frag.Address)
	}

	seq := p.clock.Next()
	inserted, err := p.store.CommitTransaction(ctx, store.Commit{
		TxID:  tx.ID,
		Seq:   seq,
		Ops:   tx.Ops,
		Dirty: writes,
	})
	if err != nil {
		return Result{}, &ProcessError{TxID: tx.ID, Err: err}
	}

	p.logger.Info("transaction committed",
		"tx_id", tx.ID,
		"seq", seq,
		"op_count", len(tx.Ops),
		"dirty_count", len(writes))

	return Result{TxID: tx.ID, Seq: seq, Inserted: inserted, Dirty: addrs}, nil
}
