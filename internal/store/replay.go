package store

import (
	"context"
	"fmt"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

// Replay folds a committed operation log back into a model. Committed
// operations validated against the state they were committed under, so the
// fold cannot contradict; a contradiction here means the log was corrupted
// or written by an incompatible version.

// ReplayAll folds the entire committed log into one model.
func (s *Store) ReplayAll(ctx context.Context) (*prov.Model, error) {
	logged, err := s.ReadAllOperations(ctx)
	if err != nil {
		return nil, err
	}
	return foldLog(logged)
}

// ReplayNamespace folds one namespace's committed log into a model.
func (s *Store) ReplayNamespace(ctx context.Context, ns prov.NamespaceID) (*prov.Model, error) {
	logged, err := s.ReadNamespaceOperations(ctx, ns)
	if err != nil {
		return nil, err
	}
	return foldLog(logged)
}

func foldLog(logged []LoggedOperation) (*prov.Model, error) {
	m := prov.NewModel()
	for _, entry := range logged {
		if err := ops.Apply(m, entry.Op); err != nil {
			return nil, fmt.Errorf("replay seq=%d idx=%d (%s): %w",
				entry.Seq, entry.Idx, entry.Op.Kind(), err)
		}
	}
	return m, nil
}
