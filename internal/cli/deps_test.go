package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepsListsAddresses(t *testing.T) {
	file := writeTempFile(t, "ops.yaml", recordBatchYAML)

	out, err := executeCommand("deps", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "0 agent_exists")
	assert.Contains(t, out, "1 start_activity")
	assert.Contains(t, out, "provenant:ns:lab:5a0b7b6e-3d58-4a6f-8c2e-000000000001")
	assert.Contains(t, out, "provenant:agent:alice")
	assert.Contains(t, out, "provenant:activity:assay")
}

func TestDepsJSONOutput(t *testing.T) {
	file := writeTempFile(t, "ops.yaml", recordBatchYAML)

	out, err := executeCommand("deps", "--file", file, "--format", "json")
	require.NoError(t, err)

	var all []OpDeps
	decodeJSONData(t, out, &all)
	require.Len(t, all, 2)

	assert.Equal(t, "agent_exists", all[0].Kind)
	require.NotEmpty(t, all[0].Addresses)
	// Namespace record is always the first dependency.
	assert.Equal(t, "provenant:ns:lab:5a0b7b6e-3d58-4a6f-8c2e-000000000001", all[0].Addresses[0])
	assert.Empty(t, all[0].StateKeys)
}

func TestDepsVerboseIncludesStateKeys(t *testing.T) {
	file := writeTempFile(t, "ops.yaml", recordBatchYAML)

	out, err := executeCommand("deps", "--file", file, "--format", "json", "-v")
	require.NoError(t, err)

	var all []OpDeps
	decodeJSONData(t, out, &all)
	require.Len(t, all, 2)
	assert.Len(t, all[0].StateKeys, len(all[0].Addresses))
}

func TestDepsMissingFile(t *testing.T) {
	_, err := executeCommand("deps", "--file", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
