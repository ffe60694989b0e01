package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenant/provenant/internal/prov"
)

// Every operation depends on its namespace record plus each mentioned
// resource exactly once; optional references count only when set.

func TestDependenciesStartWithNamespace(t *testing.T) {
	ns := testNS(t, "lab")
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, op := range sampleOperations(ns, t0) {
		deps := op.Dependencies()
		require.NotEmpty(t, deps, "kind %s", op.Kind())
		assert.True(t, deps[0].Equal(NamespaceAddress(ns)),
			"kind %s: first dependency must be the namespace record", op.Kind())
	}
}

func TestDependenciesAreUnique(t *testing.T) {
	ns := testNS(t, "lab")
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	for _, op := range sampleOperations(ns, t0) {
		deps := op.Dependencies()
		seen := map[string]bool{}
		for _, a := range deps {
			key := a.StateKey()
			assert.False(t, seen[key], "kind %s: duplicate dependency %s", op.Kind(), a)
			seen[key] = true
		}
	}
}

func TestDependenciesSelfRelation(t *testing.T) {
	ns := testNS(t, "lab")

	// An activity informing itself still yields the address once.
	op := WasInformedBy{Namespace: ns, Activity: "loop", Informing: "loop"}
	deps := op.Dependencies()
	require.Len(t, deps, 2)
	assert.True(t, deps[1].Equal(ResourceAddress(ns, prov.ActivityID("loop").IRI())))
}

func TestDependenciesOptionalActivity(t *testing.T) {
	ns := testNS(t, "lab")

	unscoped := AgentActsOnBehalfOf{Namespace: ns, Delegate: "bob", Responsible: "alice"}
	assert.Len(t, unscoped.Dependencies(), 3, "namespace + two agents")

	scoped := AgentActsOnBehalfOf{Namespace: ns, Delegate: "bob", Responsible: "alice", Activity: "assay"}
	deps := scoped.Dependencies()
	require.Len(t, deps, 4)
	assert.True(t, deps[3].Equal(ResourceAddress(ns, prov.ActivityID("assay").IRI())))

	plain := EntityDerive{Namespace: ns, Generated: "out", Used: "in"}
	assert.Len(t, plain.Dependencies(), 3, "namespace + two entities")

	derived := EntityDerive{Namespace: ns, Generated: "out", Used: "in", Activity: "assay"}
	assert.Len(t, derived.Dependencies(), 4)
}

func TestDependenciesSetAttributesSubjects(t *testing.T) {
	ns := testNS(t, "lab")

	for _, tc := range []struct {
		subject SubjectKind
		want    prov.IRI
	}{
		{SubjectAgent, prov.AgentID("x").IRI()},
		{SubjectActivity, prov.ActivityID("x").IRI()},
		{SubjectEntity, prov.EntityID("x").IRI()},
	} {
		op := SetAttributes{Namespace: ns, Subject: tc.subject, ID: "x"}
		deps := op.Dependencies()
		require.Len(t, deps, 2, "subject %s", tc.subject)
		assert.Equal(t, tc.want, deps[1].Resource)
	}
}

func TestDependenciesDisjointOperationsShareNothing(t *testing.T) {
	ns := testNS(t, "lab")
	other := testNS(t, "clinic")

	a := WasGeneratedBy{Namespace: ns, Activity: "assay", Entity: "result"}
	b := WasGeneratedBy{Namespace: other, Activity: "assay", Entity: "result"}

	seen := map[string]bool{}
	for _, d := range a.Dependencies() {
		seen[d.StateKey()] = true
	}
	for _, d := range b.Dependencies() {
		assert.False(t, seen[d.StateKey()],
			"same externals in different namespaces must not collide: %s", d)
	}
}
