package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"collect", "serve", "sources"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestCollectRequiresQuery(t *testing.T) {
	f := collectCmd.Flags().Lookup("query")
	if assert.NotNil(t, f) {
		assert.NotEmpty(t, f.Annotations[cobra.BashCompOneRequiredFlag])
	}
}
