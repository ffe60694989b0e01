package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intP(n int) *int { return &n }

func testScenario(steps []Step, finalState ...StateAssertion) *Scenario {
	return &Scenario{
		Name:        "test",
		Description: "built in code",
		Namespace: NamespaceRef{
			External: "lab",
			UUID:     "5a0b7b6e-3d58-4a6f-8c2e-000000000001",
		},
		Steps:      steps,
		FinalState: finalState,
	}
}

func TestRunCommitsSteps(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "record",
			Operations: []map[string]any{
				{"op": "was_generated_by", "activity": "assay", "entity": "result"},
			},
			Expect: &ExpectClause{Status: ExpectOK, Dirty: intP(3)},
		},
		{
			Name: "associate",
			Operations: []map[string]any{
				{"op": "was_associated_with", "activity": "assay", "agent": "alice", "role": "lead"},
			},
			Expect: &ExpectClause{Status: ExpectOK, Dirty: intP(2)},
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "tx-1", result.Trace[0].TxID)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, "tx-2", result.Trace[1].TxID)
	assert.Equal(t, int64(2), result.Trace[1].Seq)
}

func TestRunExpectedContradiction(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "start",
			Operations: []map[string]any{
				{"op": "start_activity", "id": "assay", "time": "2024-08-01T09:00:00Z"},
			},
		},
		{
			Name: "alter",
			Operations: []map[string]any{
				{"op": "start_activity", "id": "assay", "time": "2024-08-01T10:00:00Z"},
			},
			Expect: &ExpectClause{Status: ExpectContradiction, Kind: "START_DATE_ALTERATION"},
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, ExpectContradiction, result.Trace[1].Status)
	assert.Equal(t, "START_DATE_ALTERATION", result.Trace[1].Kind)
	assert.NotEmpty(t, result.Trace[1].Detail)
}

func TestRunUnexpectedContradictionFails(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "start",
			Operations: []map[string]any{
				{"op": "start_activity", "id": "assay", "time": "2024-08-01T09:00:00Z"},
			},
		},
		{
			Name: "alter",
			Operations: []map[string]any{
				{"op": "start_activity", "id": "assay", "time": "2024-08-01T10:00:00Z"},
			},
			// No expect clause: the step is assumed to commit.
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unexpected contradiction")
}

func TestRunWrongContradictionKindFails(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "start",
			Operations: []map[string]any{
				{"op": "start_activity", "id": "assay", "time": "2024-08-01T09:00:00Z"},
			},
		},
		{
			Name: "alter",
			Operations: []map[string]any{
				{"op": "start_activity", "id": "assay", "time": "2024-08-01T10:00:00Z"},
			},
			Expect: &ExpectClause{Status: ExpectContradiction, Kind: "INVALID_TIME_RANGE"},
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "contradiction kind")
}

func TestRunExpectedContradictionButCommitted(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "create",
			Operations: []map[string]any{
				{"op": "agent_exists", "id": "alice"},
			},
			Expect: &ExpectClause{Status: ExpectContradiction},
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected contradiction, got ok")
}

func TestRunDirtyCountMismatchFails(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "create",
			Operations: []map[string]any{
				{"op": "agent_exists", "id": "alice"},
			},
			Expect: &ExpectClause{Status: ExpectOK, Dirty: intP(5)},
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "dirty fragments")
}

func TestRunFinalStateAssertions(t *testing.T) {
	boolP := func(b bool) *bool { return &b }

	scenario := testScenario(
		[]Step{
			{
				Name: "set",
				Operations: []map[string]any{
					{
						"op": "set_attributes", "subject": "entity", "id": "sample",
						"domain_type": "specimen",
						"attributes": map[string]any{
							"label":  map[string]any{"type": "text", "value": "batch-a"},
							"volume": map[string]any{"type": "ml", "value": 20},
						},
					},
					{"op": "start_activity", "id": "assay", "time": "2024-08-01T09:00:00Z"},
				},
			},
		},
		StateAssertion{
			Subject: "entity", ID: "sample", DomainType: "specimen",
			Attributes: map[string]AttributeRef{
				"label":  {Type: "text", Value: "batch-a"},
				"volume": {Type: "ml", Value: 20},
			},
		},
		StateAssertion{Subject: "activity", ID: "assay", Started: "2024-08-01T09:00:00Z"},
		StateAssertion{Subject: "agent", ID: "nobody", Exists: boolP(false)},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunFinalStateMismatches(t *testing.T) {
	scenario := testScenario(
		[]Step{
			{
				Name: "set",
				Operations: []map[string]any{
					{
						"op": "set_attributes", "subject": "entity", "id": "sample",
						"domain_type": "specimen",
						"attributes": map[string]any{
							"label": map[string]any{"type": "text", "value": "batch-a"},
						},
					},
				},
			},
		},
		StateAssertion{
			Subject: "entity", ID: "sample",
			Attributes: map[string]AttributeRef{
				"label": {Type: "text", Value: "batch-b"},
			},
		},
		StateAssertion{Subject: "entity", ID: "ghost"},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRunExplicitNamespaceIsKept(t *testing.T) {
	scenario := testScenario(
		[]Step{
			{
				Name: "cross",
				Operations: []map[string]any{
					{
						"op": "agent_exists", "id": "carol",
						"namespace": map[string]any{
							"external": "clinic",
							"uuid":     "5a0b7b6e-3d58-4a6f-8c2e-000000000002",
						},
					},
				},
			},
		},
		// The default-namespace agent must not exist: the operation carried
		// its own namespace.
		StateAssertion{Subject: "agent", ID: "carol", Exists: func(b bool) *bool { return &b }(false)},
	)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunRejectsMalformedOperation(t *testing.T) {
	scenario := testScenario([]Step{
		{
			Name: "bad",
			Operations: []map[string]any{
				{"op": "no_such_operation"},
			},
		},
	})

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation kind")
}
