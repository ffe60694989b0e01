package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenant/provenant/internal/ops"
)

func TestValidate_NilFilter(t *testing.T) {
	assert.NoError(t, Validate(nil))
}

func TestValidate_EveryKindIsValid(t *testing.T) {
	for _, kind := range ops.Kinds {
		assert.NoError(t, Validate(KindIs{Kind: kind}), "kind %s", kind)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	err := Validate(KindIs{Kind: "frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown operation kind "frobnicate"`)
}

func TestValidate_EmptyTxID(t *testing.T) {
	err := Validate(TxIs{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction id filter is empty")
}

func TestValidate_NegativeSeqBounds(t *testing.T) {
	require.Error(t, Validate(SeqAtLeast{Seq: -1}))
	require.Error(t, Validate(SeqAtMost{Seq: -3}))
	assert.NoError(t, Validate(SeqAtLeast{Seq: 0}))
}

func TestValidate_AndReportsPosition(t *testing.T) {
	err := Validate(And{Filters: []Filter{
		KindIs{Kind: ops.KindAgentExists},
		TxIs{},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter 1:")
}

func TestValidate_AndRejectsNilSubFilter(t *testing.T) {
	err := Validate(And{Filters: []Filter{nil}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil sub-filter")
}

func TestValidate_PointerForms(t *testing.T) {
	assert.NoError(t, Validate(&KindIs{Kind: ops.KindEntityDerive}))
	assert.NoError(t, Validate(&And{Filters: []Filter{&SeqAtMost{Seq: 9}}}))
	require.Error(t, Validate(&TxIs{}))
}
