package prov

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNS(t *testing.T, external string) NamespaceID {
	t.Helper()
	id, err := uuid.Parse("5a0b7b6e-3d58-4a6f-8c2e-000000000001")
	require.NoError(t, err)
	return NewNamespaceID(ExternalID(external), id)
}

func TestEnsureIsIdempotent(t *testing.T) {
	m := NewModel()
	ns := testNS(t, "testns")

	first := m.EnsureAgent(ns, "alice")
	first.DomainType = "person"

	second := m.EnsureAgent(ns, "alice")
	assert.Same(t, first, second, "re-ensuring must return the existing record")
	assert.Equal(t, DomainTypeID("person"), second.DomainType)
	assert.Len(t, m.Agents, 1)
}

func TestAddDelegationIndexesBothAgents(t *testing.T) {
	m := NewModel()
	ns := testNS(t, "testns")

	d := Delegation{Namespace: ns, Delegate: "bob", Responsible: "alice", Role: "deputy"}
	m.AddDelegation(d)
	m.AddDelegation(d) // duplicate insert is a no-op

	respKey := AgentKey{Namespace: ns, ID: "alice"}
	delKey := AgentKey{Namespace: ns, ID: "bob"}
	assert.Equal(t, []Delegation{d}, m.Delegations[respKey])
	assert.Equal(t, []Delegation{d}, m.ActedOnBehalfOf[delKey])
}

func TestRelationSetsStaySorted(t *testing.T) {
	m := NewModel()
	ns := testNS(t, "testns")

	m.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "zeta"})
	m.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "alpha"})
	m.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "mid"})

	key := ActivityKey{Namespace: ns, ID: "act"}
	got := m.Usages[key]
	require.Len(t, got, 3)
	assert.Equal(t, EntityID("alpha"), got[0].Entity)
	assert.Equal(t, EntityID("mid"), got[1].Entity)
	assert.Equal(t, EntityID("zeta"), got[2].Entity)
}

func TestSetAgentIdentityRotation(t *testing.T) {
	m := NewModel()
	ns := testNS(t, "testns")

	key1 := NewIdentityID("alice", "pk-one")
	key2 := NewIdentityID("alice", "pk-two")

	m.SetAgentIdentity(ns, "alice", key1)
	a := m.Agents[AgentKey{Namespace: ns, ID: "alice"}]
	require.NotNil(t, a)
	assert.Equal(t, key1, a.HasIdentity)
	assert.Empty(t, a.HadIdentity)

	// Restating the current identity changes nothing.
	m.SetAgentIdentity(ns, "alice", key1)
	assert.Equal(t, key1, a.HasIdentity)
	assert.Empty(t, a.HadIdentity)

	// Rotation moves the old key to the historical set.
	m.SetAgentIdentity(ns, "alice", key2)
	assert.Equal(t, key2, a.HasIdentity)
	assert.Equal(t, []IdentityID{key1}, a.HadIdentity)
}

func TestMergeUnionsRelationsAndOverwritesRecords(t *testing.T) {
	ns := testNS(t, "testns")

	base := NewModel()
	base.EnsureNamespace(ns)
	base.EnsureEntity(ns, "doc")
	base.AddAttribution(Attribution{Namespace: ns, Entity: "doc", Agent: "alice"})

	incoming := NewModel()
	e := incoming.EnsureEntity(ns, "doc")
	e.DomainType = "report"
	incoming.AddAttribution(Attribution{Namespace: ns, Entity: "doc", Agent: "bob"})

	base.Merge(incoming)

	got := base.Entities[EntityKey{Namespace: ns, ID: "doc"}]
	require.NotNil(t, got)
	assert.Equal(t, DomainTypeID("report"), got.DomainType, "record merge overwrites by key")

	attrs := base.Attributions[EntityKey{Namespace: ns, ID: "doc"}]
	require.Len(t, attrs, 2, "relation merge unions the sets")
	assert.Equal(t, AgentID("alice"), attrs[0].Agent)
	assert.Equal(t, AgentID("bob"), attrs[1].Agent)
}

func TestCloneIsIndependent(t *testing.T) {
	ns := testNS(t, "testns")

	m := NewModel()
	m.EnsureNamespace(ns)
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	act := m.EnsureActivity(ns, "run")
	act.Started = &started
	m.SetEntityAttributes(ns, "out", "artifact", Attributes{
		"size": {Type: "bytes", Value: IntValue(512)},
	})

	clone := m.Clone()
	require.True(t, m.Equal(clone))

	// Mutating the clone must not leak into the original.
	later := started.Add(time.Hour)
	clone.Activities[ActivityKey{Namespace: ns, ID: "run"}].Started = &later
	clone.SetEntityAttributes(ns, "out", "artifact", Attributes{
		"extra": {Type: "string", Value: StringValue("x")},
	})

	assert.True(t, m.Activities[ActivityKey{Namespace: ns, ID: "run"}].Started.Equal(started))
	assert.Len(t, m.Entities[EntityKey{Namespace: ns, ID: "out"}].Attributes, 1)
	assert.False(t, m.Equal(clone))
}

func TestModelEqualIgnoresInsertionOrder(t *testing.T) {
	ns := testNS(t, "testns")

	a := NewModel()
	a.EnsureAgent(ns, "alice")
	a.EnsureAgent(ns, "bob")
	a.AddAssociation(Association{Namespace: ns, Activity: "act", Agent: "alice"})
	a.AddAssociation(Association{Namespace: ns, Activity: "act", Agent: "bob"})

	b := NewModel()
	b.AddAssociation(Association{Namespace: ns, Activity: "act", Agent: "bob"})
	b.AddAssociation(Association{Namespace: ns, Activity: "act", Agent: "alice"})
	b.EnsureAgent(ns, "bob")
	b.EnsureAgent(ns, "alice")

	// Equal compares canonical bytes; association insertion created the
	// activity stubs in neither model, so records must match too.
	assert.True(t, a.Equal(b))
}
