package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenant/provenant/internal/ops"
	"github.com/provenant/provenant/internal/prov"
	"github.com/provenant/provenant/internal/testutil"
)

func schedulerNS(t *testing.T, external, id string) prov.NamespaceID {
	t.Helper()
	return testutil.Namespace(external, id)
}

func TestConflictGroupsPartitionByAddressOverlap(t *testing.T) {
	lab := schedulerNS(t, "lab", "5a0b7b6e-3d58-4a6f-8c2e-000000000001")
	clinic := schedulerNS(t, "clinic", "5a0b7b6e-3d58-4a6f-8c2e-000000000002")

	txs := []Transaction{
		{ID: "tx-1", Ops: []ops.Operation{ops.AgentExists{Namespace: lab, ID: "alice"}}},
		{ID: "tx-2", Ops: []ops.Operation{ops.AgentExists{Namespace: clinic, ID: "carol"}}},
		// Shares the lab namespace address with tx-1.
		{ID: "tx-3", Ops: []ops.Operation{ops.EntityExists{Namespace: lab, ID: "sample"}}},
	}

	groups := conflictGroups(txs)
	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 2}, groups[0])
	assert.Equal(t, []int{1}, groups[1])
}

func TestConflictGroupsTransitiveClosure(t *testing.T) {
	lab := schedulerNS(t, "lab", "5a0b7b6e-3d58-4a6f-8c2e-000000000001")
	clinic := schedulerNS(t, "clinic", "5a0b7b6e-3d58-4a6f-8c2e-000000000002")

	txs := []Transaction{
		{ID: "tx-1", Ops: []ops.Operation{ops.AgentExists{Namespace: lab, ID: "alice"}}},
		{ID: "tx-2", Ops: []ops.Operation{ops.AgentExists{Namespace: clinic, ID: "carol"}}},
		// Bridges both namespaces, pulling tx-1 and tx-2 into one group.
		{ID: "tx-3", Ops: []ops.Operation{
			ops.AgentExists{Namespace: lab, ID: "alice"},
			ops.AgentExists{Namespace: clinic, ID: "carol"},
		}},
	}

	groups := conflictGroups(txs)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1, 2}, groups[0])
}

func TestSchedulerRunsDisjointBatches(t *testing.T) {
	p, s := newTestProcessor(t)
	sched := NewScheduler(p)
	ctx := context.Background()

	lab := schedulerNS(t, "lab", "5a0b7b6e-3d58-4a6f-8c2e-000000000001")
	clinic := schedulerNS(t, "clinic", "5a0b7b6e-3d58-4a6f-8c2e-000000000002")

	outcomes := sched.Run(ctx, []Transaction{
		{ID: "tx-1", Ops: []ops.Operation{ops.AgentExists{Namespace: lab, ID: "alice"}}},
		{ID: "tx-2", Ops: []ops.Operation{ops.AgentExists{Namespace: clinic, ID: "carol"}}},
	})
	require.Len(t, outcomes, 2)
	for i, o := range outcomes {
		require.NoError(t, o.Err, "outcome %d", i)
		assert.True(t, o.Result.Inserted)
	}

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)
}

func TestSchedulerSerializesConflicts(t *testing.T) {
	p, _ := newTestProcessor(t)
	sched := NewScheduler(p)
	ctx := context.Background()

	lab := schedulerNS(t, "lab", "5a0b7b6e-3d58-4a6f-8c2e-000000000001")

	setLabel := func(id, label string) Transaction {
		return Transaction{ID: id, Ops: []ops.Operation{ops.SetAttributes{
			Namespace: lab, Subject: ops.SubjectEntity, ID: "sample", DomainType: "specimen",
			Attributes: prov.Attributes{"label": {Type: "text", Value: prov.StringValue(label)}},
		}}}
	}

	// Same entity address: one conflict group, processed in submission
	// order, so the second transaction must observe the first's attribute.
	outcomes := sched.Run(ctx, []Transaction{
		setLabel("tx-1", "batch-a"),
		setLabel("tx-2", "batch-b"),
	})
	require.Len(t, outcomes, 2)

	require.NoError(t, outcomes[0].Err)
	assert.True(t, outcomes[0].Result.Inserted)

	require.Error(t, outcomes[1].Err)
	c, ok := ops.AsContradiction(outcomes[1].Err)
	require.True(t, ok)
	assert.Equal(t, ops.KindAttributeValueChange, c.Kind)
}

func TestSchedulerFailureDoesNotStopGroup(t *testing.T) {
	p, _ := newTestProcessor(t)
	sched := NewScheduler(p)
	ctx := context.Background()

	lab := schedulerNS(t, "lab", "5a0b7b6e-3d58-4a6f-8c2e-000000000001")

	set := func(id string, value int64) Transaction {
		return Transaction{ID: id, Ops: []ops.Operation{ops.SetAttributes{
			Namespace: lab, Subject: ops.SubjectEntity, ID: "sample", DomainType: "specimen",
			Attributes: prov.Attributes{"volume": {Type: "ml", Value: prov.IntValue(value)}},
		}}}
	}

	outcomes := sched.Run(ctx, []Transaction{
		set("tx-1", 10),
		set("tx-2", 20), // contradicts tx-1
		set("tx-3", 10), // restates tx-1, still fine
	})
	require.Len(t, outcomes, 3)

	require.NoError(t, outcomes[0].Err)
	require.Error(t, outcomes[1].Err)
	require.NoError(t, outcomes[2].Err, "a rejected predecessor must not poison the group")
	assert.True(t, outcomes[2].Result.Inserted)
}
