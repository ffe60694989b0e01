package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenant/provenant/internal/prov"
)

func TestEncodeIsCanonical(t *testing.T) {
	ns := testNS(t, "lab")
	op := WasAssociatedWith{Namespace: ns, Activity: "assay", Agent: "alice", Role: "lead"}

	first, err := Encode(op)
	require.NoError(t, err)
	second, err := Encode(op)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t,
		`{"activity":"assay","agent":"alice","namespace":{"external":"lab","uuid":"5a0b7b6e-3d58-4a6f-8c2e-000000000001"},"op":"was_associated_with","role":"lead"}`,
		string(first))
}

func TestEncodeOmitsUnsetOptionalFields(t *testing.T) {
	ns := testNS(t, "lab")

	data, err := Encode(EntityDerive{Namespace: ns, Generated: "out", Used: "in"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"activity"`)
	assert.Contains(t, string(data), `"kind":"none"`)

	data, err = Encode(WasAttributedTo{Namespace: ns, Entity: "out", Agent: "alice"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"role"`)
}

func TestOperationRoundTrip(t *testing.T) {
	ns := testNS(t, "lab")
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 500, time.UTC)

	for _, op := range sampleOperations(ns, t0) {
		data, err := Encode(op)
		require.NoError(t, err, "kind %s", op.Kind())

		decoded, err := Decode(data)
		require.NoError(t, err, "kind %s", op.Kind())
		assert.Equal(t, op.Kind(), decoded.Kind())

		// Decoding must reproduce the exact same serialized form.
		again, err := Encode(decoded)
		require.NoError(t, err, "kind %s", op.Kind())
		assert.Equal(t, string(data), string(again), "kind %s", op.Kind())
	}
}

func TestDecodeMapMatchesDecode(t *testing.T) {
	ns := testNS(t, "lab")

	doc := map[string]any{
		"op":        "set_attributes",
		"namespace": prov.NamespaceIDToMap(ns),
		"subject":   "entity",
		"id":        "sample",
		"attributes": map[string]any{
			"volume": map[string]any{"type": "ml", "value": 50},
		},
	}

	op, err := DecodeMap(doc)
	require.NoError(t, err)

	sa, ok := op.(SetAttributes)
	require.True(t, ok)
	assert.Equal(t, SubjectEntity, sa.Subject)
	assert.Equal(t, prov.ExternalID("sample"), sa.ID)
	assert.True(t, sa.Attributes["volume"].Equal(prov.Attribute{Type: "ml", Value: prov.IntValue(50)}))
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"op":"delete_everything","namespace":{"external":"x","uuid":"5a0b7b6e-3d58-4a6f-8c2e-000000000001"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation kind")
}

func TestDecodeRejectsBadTimestamp(t *testing.T) {
	_, err := Decode([]byte(`{"op":"start_activity","namespace":{"external":"x","uuid":"5a0b7b6e-3d58-4a6f-8c2e-000000000001"},"id":"a","time":"yesterday"}`))
	require.Error(t, err)
}

func TestDecodeRejectsFloatAttribute(t *testing.T) {
	_, err := Decode([]byte(`{"op":"set_attributes","namespace":{"external":"x","uuid":"5a0b7b6e-3d58-4a6f-8c2e-000000000001"},"subject":"entity","id":"e","attributes":{"w":{"type":"g","value":2.5}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
}

func TestDecodeRejectsBadSubject(t *testing.T) {
	_, err := Decode([]byte(`{"op":"set_attributes","namespace":{"external":"x","uuid":"5a0b7b6e-3d58-4a6f-8c2e-000000000001"},"subject":"warehouse","id":"e"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
}
