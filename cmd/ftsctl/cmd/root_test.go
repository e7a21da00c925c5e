package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_NoArgsPrintsHelp(t *testing.T) {
	// Given: the root command with no subcommand
	rootCmd := NewRootCmd()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{})

	// When: executing
	err := rootCmd.Execute()

	// Then: help text is printed, not an error
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ftsctl")
}

func TestRootCmd_RegistersEverySubcommand(t *testing.T) {
	rootCmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{
		"create-index", "list-indexes", "put", "get", "delete",
		"search", "facets", "stats", "snapshot",
	} {
		assert.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestRootCmd_DataDirFlagDefaultsNonEmpty(t *testing.T) {
	rootCmd := NewRootCmd()
	flag := rootCmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, flag)
	assert.NotEmpty(t, flag.DefValue)
}
