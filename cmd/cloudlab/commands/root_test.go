package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHasExpectedSubcommands(t *testing.T) {
	t.Parallel()

	root := Root()
	require.Equal(t, "cloudlab", root.Use)

	names := make([]string, 0)
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Contains(t, names, "apply")
	assert.Contains(t, names, "destroy")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "version")
	assert.Contains(t, names, "completion")
}

func TestApplyRequiresConfigFlag(t *testing.T) {
	t.Parallel()

	cmd := Apply()
	flag := cmd.Flags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)

	err := cmd.Execute()
	assert.ErrorContains(t, err, "config")
}

func TestDestroyHasYesFlag(t *testing.T) {
	t.Parallel()

	cmd := Destroy()
	flag := cmd.Flags().Lookup("yes")
	require.NotNil(t, flag)
	assert.Equal(t, "y", flag.Shorthand)
	assert.Equal(t, "false", flag.DefValue)
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	t.Parallel()

	cmd := Completion()
	cmd.SetArgs([]string{"tcsh"})
	assert.Error(t, cmd.Execute())
}
