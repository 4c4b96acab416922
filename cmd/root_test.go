//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "discover", "status", "cache"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "partscope", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestDiscoverCommand_Flags(t *testing.T) {
	for _, name := range []string{"force", "brand", "model", "category", "grid"} {
		require.NotNil(t, discoverCmd.Flags().Lookup(name), "discover command should have --%s flag", name)
	}
}

func TestCacheCommand_HasClear(t *testing.T) {
	var found bool
	for _, c := range cacheCmd.Commands() {
		if c.Name() == "clear" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestServeCommand_PortFlag(t *testing.T) {
	require.NotNil(t, serveCmd.Flags().Lookup("port"))
}
