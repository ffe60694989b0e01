package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/state"
)

// createTestStore creates a file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testNS(t *testing.T, external string) prov.NamespaceID {
	t.Helper()
	id, err := uuid.Parse("5a0b7b6e-3d58-4a6f-8c2e-000000000001")
	if err != nil {
		t.Fatalf("uuid.Parse() failed: %v", err)
	}
	return prov.NewNamespaceID(prov.ExternalID(external), id)
}

// buildCommit applies the operations to a fresh model and packages the
// result the way the processor does: snapshot, all fragments dirty.
func buildCommit(t *testing.T, txID string, seq int64, operations ...ops.Operation) Commit {
	t.Helper()
	m := prov.NewModel()
	for _, op := range operations {
		if err := ops.Apply(m, op); err != nil {
			t.Fatalf("Apply(%s) failed: %v", op.Kind(), err)
		}
	}

	var dirty []FragmentWrite
	for _, frag := range state.Snapshot(m) {
		dirty = append(dirty, FragmentWrite{Fragment: frag, Version: 1})
	}
	return Commit{TxID: txID, Seq: seq, Ops: operations, Dirty: dirty}
}

func labBatch(ns prov.NamespaceID) []ops.Operation {
	return []ops.Operation{
		ops.CreateNamespace{ID: ns},
		ops.WasAssociatedWith{Namespace: ns, Activity: "assay", Agent: "alice", Role: "lead"},
		ops.ActivityUses{Namespace: ns, Activity: "assay", Entity: "reagent"},
		ops.WasGeneratedBy{Namespace: ns, Activity: "assay", Entity: "result"},
		ops.StartActivity{Namespace: ns, ID: "assay", Time: time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)},
	}
}
