package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	prev := Global
	Global = koanf.New(".")
	t.Cleanup(func() { Global = prev })
}

func TestLoadRequiredEnvDefaults(t *testing.T) {
	resetGlobal(t)

	require.NoError(t, LoadRequiredEnv())
	s, err := Current()
	require.NoError(t, err)

	assert.Equal(t, uint64(8453), s.BaseChainID)
	assert.Equal(t, "https://mainnet.base.org", s.BaseRPCURL)
	assert.Equal(t, "mainnet", s.StacksNetwork)
	assert.Equal(t, "witnesschain", s.StacksContractName)
	assert.Equal(t, 30, s.TxMaxAttempts)
	assert.Equal(t, 2*time.Second, s.TxPollInterval)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.Empty(t, s.BaseContractAddress)
	assert.Empty(t, s.StacksContractAddress)
}

func TestLoadRequiredEnvOverrides(t *testing.T) {
	resetGlobal(t)
	t.Setenv(BASE_CHAIN_ID, "84532")
	t.Setenv(BASE_CHAIN_NAME, "Base Sepolia Fork")
	t.Setenv(BASE_CONTRACT_ABI, "abi/witness.json")
	t.Setenv(STACKS_NETWORK, "testnet")
	t.Setenv(STACKS_CONTRACT_ADDRESS, "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ")
	t.Setenv(TX_MAX_ATTEMPTS, "5")
	t.Setenv(TX_POLL_INTERVAL, "500ms")
	t.Setenv(LOG_LEVEL, "debug")

	require.NoError(t, LoadRequiredEnv())
	s, err := Current()
	require.NoError(t, err)

	assert.Equal(t, uint64(84532), s.BaseChainID)
	assert.Equal(t, "Base Sepolia Fork", s.BaseChainName)
	assert.Equal(t, "abi/witness.json", s.BaseContractABI)
	assert.Equal(t, "testnet", s.StacksNetwork)
	assert.Equal(t, "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ", s.StacksContractAddress)
	assert.Equal(t, 5, s.TxMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, s.TxPollInterval)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
}

func TestLoadRequiredEnvExtra(t *testing.T) {
	resetGlobal(t)

	err := LoadRequiredEnv(EVM_PROVIDER_URL)
	assert.ErrorContains(t, err, EVM_PROVIDER_URL)

	resetGlobal(t)
	t.Setenv(EVM_PROVIDER_URL, "ws://127.0.0.1:1248")
	require.NoError(t, LoadRequiredEnv(EVM_PROVIDER_URL))
}

func TestCurrentInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "chain id", key: BASE_CHAIN_ID, value: "base"},
		{name: "attempts", key: TX_MAX_ATTEMPTS, value: "0"},
		{name: "interval", key: TX_POLL_INTERVAL, value: "soon"},
		{name: "log level", key: LOG_LEVEL, value: "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobal(t)
			t.Setenv(tt.key, tt.value)
			require.NoError(t, LoadRequiredEnv())

			_, err := Current()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}
