package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "walletctl", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	for _, path := range [][]string{
		{"session"},
		{"tx", "wait"},
		{"tx", "status"},
		{"read"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "wait without id", args: []string{"tx", "wait", "base"}, wantErr: "accepts 2 arg(s)"},
		{name: "status on base", args: []string{"tx", "status", "base", "0x01"}, wantErr: "only available for stacks"},
		{name: "read without method", args: []string{"read", "stacks"}, wantErr: "requires at least 2 arg(s)"},
		{name: "read on unknown chain", args: []string{"read", "solana", "balance"}, wantErr: "unknown chain"},
		{name: "session with args", args: []string{"session", "extra"}, wantErr: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)
			t.Cleanup(func() { rootCmd.SetArgs(nil) })

			err := rootCmd.Execute()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
