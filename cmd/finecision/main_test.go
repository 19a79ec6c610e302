package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finecision/finecision"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "finecision version "+strings.TrimSpace(finecision.Version)+"\n", out.String())
}

func TestValidateCommand_Examples(t *testing.T) {
	rootCmd.SetArgs([]string{"validate",
		"../../examples/workflows/personal-loan.yaml",
		"../../examples/workflows/micro-credit.json",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.NoError(t, rootCmd.Execute())
}

func TestCommands_Registered(t *testing.T) {
	want := []string{"graph", "mcp", "preview", "run", "serve", "validate", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
