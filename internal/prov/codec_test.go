package prov

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyModelSerializesAsEmptyObject(t *testing.T) {
	got, err := NewModel().MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))
}

func buildRichModel(t *testing.T) *Model {
	t.Helper()
	ns := testNS(t, "factory")

	m := NewModel()
	m.EnsureNamespace(ns)

	m.SetAgentAttributes(ns, "alice", "operator", Attributes{
		"clearance": {Type: "level", Value: IntValue(3)},
	})
	m.SetAgentIdentity(ns, "alice", NewIdentityID("alice", "pk-old"))
	m.SetAgentIdentity(ns, "alice", NewIdentityID("alice", "pk-new"))

	started := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	ended := started.Add(45 * time.Minute)
	run := m.EnsureActivity(ns, "batch-7")
	run.Started = &started
	run.Ended = &ended

	m.SetEntityAttributes(ns, "widget", "artifact", Attributes{
		"color": {Type: "string", Value: StringValue("blue")},
	})
	m.EnsureEntity(ns, "blueprint")

	m.AddAssociation(Association{Namespace: ns, Activity: "batch-7", Agent: "alice", Role: "lead"})
	m.AddUsage(Usage{Namespace: ns, Activity: "batch-7", Entity: "blueprint"})
	m.AddGeneration(Generation{Namespace: ns, Activity: "batch-7", Entity: "widget"})
	m.AddAttribution(Attribution{Namespace: ns, Entity: "widget", Agent: "alice"})
	m.AddDerivation(Derivation{Namespace: ns, Generated: "widget", Used: "blueprint", Activity: "batch-7", Kind: KindRevision})
	m.AddCommunication(Communication{Namespace: ns, Activity: "batch-7", Informing: "setup"})
	m.AddDelegation(Delegation{Namespace: ns, Delegate: "bob", Responsible: "alice"})
	return m
}

func TestModelRoundTrip(t *testing.T) {
	m := buildRichModel(t)

	data, err := m.MarshalCanonical()
	require.NoError(t, err)

	decoded, err := UnmarshalModel(data)
	require.NoError(t, err)
	require.True(t, m.Equal(decoded), "decoded model must equal the original")

	// The decoded model must re-serialize to identical bytes.
	again, err := decoded.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestModelSerializationIsInsertionOrderIndependent(t *testing.T) {
	ns := testNS(t, "factory")

	a := NewModel()
	a.EnsureEntity(ns, "one")
	a.EnsureEntity(ns, "two")
	a.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "one"})
	a.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "two"})

	b := NewModel()
	b.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "two"})
	b.AddUsage(Usage{Namespace: ns, Activity: "act", Entity: "one"})
	b.EnsureEntity(ns, "two")
	b.EnsureEntity(ns, "one")

	ba, err := a.MarshalCanonical()
	require.NoError(t, err)
	bb, err := b.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(ba), string(bb))
}

func TestUnmarshalModelRejectsBadNamespaceUUID(t *testing.T) {
	_, err := UnmarshalModel([]byte(`{"namespaces":[{"external":"x","uuid":"not-a-uuid"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uuid")
}

func TestUnmarshalModelRejectsFloatAttribute(t *testing.T) {
	data := []byte(`{"entities":[{"namespace":{"external":"x","uuid":"5a0b7b6e-3d58-4a6f-8c2e-000000000001"},"id":"e","attributes":{"w":{"type":"weight","value":1.5}}}]}`)
	_, err := UnmarshalModel(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
}
