package store

import (
	"context"
	"testing"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/state"
)

func TestReplayAllEqualsInMemoryFold(t *testing.T) {
	s := createTestStore(t)
	ns := testNS(t, "lab")
	ctx := context.Background()

	batch := labBatch(ns)
	commit := buildCommit(t, "tx-1", 1, batch...)
	if _, err := s.CommitTransaction(ctx, commit); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	want := prov.NewModel()
	for _, op := range batch {
		if err := ops.Apply(want, op); err != nil {
			t.Fatalf("Apply(%s) failed: %v", op.Kind(), err)
		}
	}

	got, err := s.ReplayAll(ctx)
	if err != nil {
		t.Fatalf("ReplayAll() failed: %v", err)
	}
	if !want.Equal(got) {
		t.Error("replayed model differs from the in-memory fold")
	}
}

func TestReplayNamespaceIsolation(t *testing.T) {
	s := createTestStore(t)
	lab := testNS(t, "lab")
	clinic := testNS(t, "clinic")
	ctx := context.Background()

	commit := buildCommit(t, "tx-1", 1,
		ops.WasGeneratedBy{Namespace: lab, Activity: "assay", Entity: "result"},
		ops.WasGeneratedBy{Namespace: clinic, Activity: "scan", Entity: "image"},
	)
	if _, err := s.CommitTransaction(ctx, commit); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	m, err := s.ReplayNamespace(ctx, lab)
	if err != nil {
		t.Fatalf("ReplayNamespace() failed: %v", err)
	}

	if _, ok := m.Namespaces[lab]; !ok {
		t.Error("lab namespace missing from replay")
	}
	if _, ok := m.Namespaces[clinic]; ok {
		t.Error("clinic namespace leaked into lab replay")
	}
	if _, ok := m.Entities[prov.EntityKey{Namespace: lab, ID: "result"}]; !ok {
		t.Error("lab entity missing from replay")
	}
}

func TestReplayMatchesMergedFragments(t *testing.T) {
	s := createTestStore(t)
	ns := testNS(t, "lab")
	ctx := context.Background()

	commit := buildCommit(t, "tx-1", 1, labBatch(ns)...)
	if _, err := s.CommitTransaction(ctx, commit); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	replayed, err := s.ReplayNamespace(ctx, ns)
	if err != nil {
		t.Fatalf("ReplayNamespace() failed: %v", err)
	}

	frags, err := s.ReadNamespaceFragments(ctx, ns)
	if err != nil {
		t.Fatalf("ReadNamespaceFragments() failed: %v", err)
	}
	merged := state.MergeFragments(frags)

	if !replayed.Equal(merged) {
		t.Error("log replay and merged stored fragments disagree")
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	s := createTestStore(t)
	ns := testNS(t, "lab")
	ctx := context.Background()

	commit := buildCommit(t, "tx-1", 1, labBatch(ns)...)
	if _, err := s.CommitTransaction(ctx, commit); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	first, err := s.ReplayAll(ctx)
	if err != nil {
		t.Fatalf("first replay failed: %v", err)
	}
	second, err := s.ReplayAll(ctx)
	if err != nil {
		t.Fatalf("second replay failed: %v", err)
	}

	a, err := first.MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := second.MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Error("replays produced different canonical bytes")
	}
}
