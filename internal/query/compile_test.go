package query

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
)

var testNS = prov.NewNamespaceID("lab",
	uuid.MustParse("5a0b7b6e-3d58-4a6f-8c2e-000000000001"))

func TestCompile_NilFilterMatchesAll(t *testing.T) {
	c, err := Compile(nil)
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", c.Where)
	assert.Empty(t, c.Params)
}

func TestCompile_KindIs(t *testing.T) {
	c, err := Compile(KindIs{Kind: ops.KindStartActivity})
	require.NoError(t, err)

	assert.Equal(t, "kind = ?", c.Where)
	// Value parameterized, never interpolated.
	assert.NotContains(t, c.Where, "start_activity")
	assert.Equal(t, []any{"start_activity"}, c.Params)
}

func TestCompile_KindIsPointer(t *testing.T) {
	c, err := Compile(&KindIs{Kind: ops.KindStartActivity})
	require.NoError(t, err)
	assert.Equal(t, "kind = ?", c.Where)
	assert.Equal(t, []any{"start_activity"}, c.Params)
}

func TestCompile_NamespaceIs(t *testing.T) {
	c, err := Compile(NamespaceIs{ID: testNS})
	require.NoError(t, err)

	assert.Equal(t, "namespace = ?", c.Where)
	assert.Equal(t, []any{string(testNS.IRI())}, c.Params)
}

func TestCompile_SeqRange(t *testing.T) {
	c, err := Compile(And{Filters: []Filter{
		SeqAtLeast{Seq: 2},
		SeqAtMost{Seq: 5},
	}})
	require.NoError(t, err)

	assert.Equal(t, "seq >= ? AND seq <= ?", c.Where)
	assert.Equal(t, []any{int64(2), int64(5)}, c.Params)
}

func TestCompile_AndParamsInOrder(t *testing.T) {
	c, err := Compile(And{Filters: []Filter{
		NamespaceIs{ID: testNS},
		KindIs{Kind: ops.KindSetAttributes},
		TxIs{TxID: "tx-1"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "namespace = ? AND kind = ? AND tx_id = ?", c.Where)
	assert.Equal(t, []any{string(testNS.IRI()), "set_attributes", "tx-1"}, c.Params)
}

func TestCompile_EmptyAndIsVacuouslyTrue(t *testing.T) {
	c, err := Compile(And{})
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", c.Where)
	assert.Empty(t, c.Params)
}

func TestCompile_NestedAnd(t *testing.T) {
	c, err := Compile(And{Filters: []Filter{
		KindIs{Kind: ops.KindAgentExists},
		&And{Filters: []Filter{
			SeqAtLeast{Seq: 1},
		}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "kind = ? AND seq >= ?", c.Where)
	assert.Equal(t, []any{"agent_exists", int64(1)}, c.Params)
}

func TestCompile_RejectsInvalidFilter(t *testing.T) {
	_, err := Compile(KindIs{Kind: "no_such_kind"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation kind")
}
