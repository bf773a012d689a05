package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/knadh/koanf/v2"
)

var Global = koanf.New(".")

// LoadRequiredEnv loads the environment variables required to run the services.
// An error is returned if any of the required variables, or any of extra, are
// missing in .env or env.
func LoadRequiredEnv(extra ...string) error {
	// Load default values
	Global.Load(confmap.Provider(map[string]interface{}{
		BASE_CHAIN_ID:        "8453",
		BASE_RPC_URL:         "https://mainnet.base.org",
		STACKS_NETWORK:       "mainnet",
		STACKS_CONTRACT_NAME: "witnesschain",
		STACKS_SESSION_FILE:  ".stacks-session.json",
		APP_NAME:             "Multi-Chain dApp",
		TX_MAX_ATTEMPTS:      "30",
		TX_POLL_INTERVAL:     "2s",
		LOG_LEVEL:            "info",
	}, "."), nil)

	// .env file is optional, but we still try to load it if it exists.
	err := Global.Load(
		file.Provider(".env"), dotenv.Parser(),
	)
	if err != nil {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	if err := Global.Load(env.Provider("", "", nil), nil); err != nil {
		slog.Warn("failed to load environment variables", slog.Any("error", err))
	}

	required := []string{
		BASE_CHAIN_ID,
		BASE_RPC_URL,
		STACKS_NETWORK,
		TX_MAX_ATTEMPTS,
		TX_POLL_INTERVAL,
	}
	required = append(required, extra...)

	for _, r := range required {
		if !Global.Exists(r) || Global.String(r) == "" {
			return fmt.Errorf("required environment variable %s is missing", r)
		}
	}

	return nil
}

// Settings is a typed view of Global.
type Settings struct {
	BaseChainID         uint64
	BaseRPCURL          string
	BaseChainName       string
	BaseExplorerURL     string
	BaseContractAddress string
	BaseContractABI     string
	EvmProviderURL      string

	StacksNetwork         string
	StacksAPIURL          string
	StacksContractAddress string
	StacksContractName    string
	StacksSessionFile     string

	AppName string
	AppIcon string

	TxMaxAttempts  int
	TxPollInterval time.Duration

	LogLevel slog.Level
}

// Current parses the loaded values.
func Current() (Settings, error) {
	s := Settings{
		BaseChainID:           uint64(Global.Int64(BASE_CHAIN_ID)),
		BaseRPCURL:            Global.String(BASE_RPC_URL),
		BaseChainName:         Global.String(BASE_CHAIN_NAME),
		BaseExplorerURL:       Global.String(BASE_EXPLORER_URL),
		BaseContractAddress:   Global.String(BASE_CONTRACT_ADDRESS),
		BaseContractABI:       Global.String(BASE_CONTRACT_ABI),
		EvmProviderURL:        Global.String(EVM_PROVIDER_URL),
		StacksNetwork:         Global.String(STACKS_NETWORK),
		StacksAPIURL:          Global.String(STACKS_API_URL),
		StacksContractAddress: Global.String(STACKS_CONTRACT_ADDRESS),
		StacksContractName:    Global.String(STACKS_CONTRACT_NAME),
		StacksSessionFile:     Global.String(STACKS_SESSION_FILE),
		AppName:               Global.String(APP_NAME),
		AppIcon:               Global.String(APP_ICON),
		TxMaxAttempts:         Global.Int(TX_MAX_ATTEMPTS),
		TxPollInterval:        Global.Duration(TX_POLL_INTERVAL),
	}

	if s.BaseChainID == 0 {
		return Settings{}, fmt.Errorf("invalid %s %q", BASE_CHAIN_ID, Global.String(BASE_CHAIN_ID))
	}
	if s.TxMaxAttempts <= 0 {
		return Settings{}, fmt.Errorf("invalid %s %q", TX_MAX_ATTEMPTS, Global.String(TX_MAX_ATTEMPTS))
	}
	if s.TxPollInterval <= 0 {
		return Settings{}, fmt.Errorf("invalid %s %q", TX_POLL_INTERVAL, Global.String(TX_POLL_INTERVAL))
	}

	if lvl := Global.String(LOG_LEVEL); lvl != "" {
		if err := s.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Settings{}, fmt.Errorf("invalid %s: %w", LOG_LEVEL, err)
		}
	}

	return s, nil
}
