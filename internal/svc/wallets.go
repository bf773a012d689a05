package svc

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/Mantelijo/multichain-wallet/internal/config"
	"github.com/Mantelijo/multichain-wallet/internal/orchestrator"
	"github.com/Mantelijo/multichain-wallet/internal/wallet"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Setup initializes the default logger and loads the configuration. extra
// lists configuration keys the caller cannot run without.
func Setup(extra ...string) (config.Settings, error) {
	// Init logger with the default level until the configured one is known
	setLogger(slog.LevelInfo)

	if err := config.LoadRequiredEnv(extra...); err != nil {
		return config.Settings{}, fmt.Errorf("failed to load required env values: %w", err)
	}

	settings, err := config.Current()
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	setLogger(settings.LogLevel)

	return settings, nil
}

func setLogger(level slog.Level) {
	logger := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	slog.SetDefault(slog.New(logger))
}

// Wallets holds the process wide adapter singletons.
type Wallets struct {
	Settings     config.Settings
	Provider     *wallet.RPCProvider
	Reader       *ethclient.Client
	Tracker      *chain.Tracker
	Base         *chain.EvmAdapter
	Stacks       *chain.StacksAdapter
	Orchestrator *orchestrator.Orchestrator
}

// NewWallets dials the configured endpoints and builds both adapters and the
// orchestrator over them. The EVM provider is only dialed when
// EVM_PROVIDER_URL is set; without it Base can read and track transactions
// but not connect. prompter may be nil, in which case Stacks only works with
// a previously persisted session.
func NewWallets(ctx context.Context, settings config.Settings, prompter wallet.Prompter) (*Wallets, error) {
	w := &Wallets{
		Settings: settings,
		Tracker:  chain.NewTracker(),
	}

	networks, err := baseNetworks(settings)
	if err != nil {
		return nil, err
	}

	reader, err := ethclient.DialContext(ctx, settings.BaseRPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial base rpc %s: %w", settings.BaseRPCURL, err)
	}
	w.Reader = reader

	var provider wallet.Provider
	if settings.EvmProviderURL != "" {
		p, err := wallet.DialProvider(ctx, settings.EvmProviderURL)
		if err != nil {
			reader.Close()
			return nil, err
		}
		w.Provider = p
		provider = p
	}

	w.Base = chain.NewEvmAdapter(provider, settings.BaseChainID,
		chain.WithChainReader{Reader: reader},
		chain.WithNetworks{Networks: networks},
		chain.WithTracker{Tracker: w.Tracker},
		chain.WithReceiptPolling{Attempts: settings.TxMaxAttempts, Interval: settings.TxPollInterval},
	)

	network, err := chain.StacksNetworkByName(settings.StacksNetwork)
	if err != nil {
		w.Close()
		return nil, err
	}
	network = network.WithAPIURL(settings.StacksAPIURL)

	var store wallet.SessionStore = wallet.NewMemorySessionStore()
	if settings.StacksSessionFile != "" {
		store = wallet.NewFileSessionStore(settings.StacksSessionFile)
	}

	w.Stacks = chain.NewStacksAdapter(
		prompter,
		store,
		wallet.AppDetails{Name: settings.AppName, IconURL: settings.AppIcon},
		network,
		chain.WithStacksTracker{Tracker: w.Tracker},
	)

	w.Orchestrator = orchestrator.New(w.Base, w.Stacks)

	slog.Info("wallets initialized",
		slog.Uint64("base_chain_id", settings.BaseChainID),
		slog.String("stacks_network", network.Name),
		slog.String("stacks_api", network.CoreAPIURL),
		slog.Bool("evm_provider", w.Provider != nil),
	)

	return w, nil
}

// baseNetworks returns the registration descriptors with the configured
// target advertising BASE_RPC_URL.
func baseNetworks(settings config.Settings) (map[uint64]chain.EvmNetwork, error) {
	networks := make(map[uint64]chain.EvmNetwork, len(chain.KnownEvmNetworks)+1)
	for id, n := range chain.KnownEvmNetworks {
		networks[id] = n
	}

	target, ok := networks[settings.BaseChainID]
	if !ok {
		if settings.BaseChainName == "" {
			return nil, fmt.Errorf("%s is required for chain id %d", config.BASE_CHAIN_NAME, settings.BaseChainID)
		}
		target = chain.CustomEvmNetwork(settings.BaseChainID, settings.BaseChainName, settings.BaseRPCURL, settings.BaseExplorerURL)
	}
	target = target.WithRPCURL(settings.BaseRPCURL)
	if settings.BaseChainName != "" {
		target.Name = settings.BaseChainName
	}
	if settings.BaseExplorerURL != "" {
		target.ExplorerURLs = []string{settings.BaseExplorerURL}
	}
	networks[settings.BaseChainID] = target

	return networks, nil
}

func (w *Wallets) Close() {
	if w.Provider != nil {
		w.Provider.Close()
	}
	if w.Reader != nil {
		w.Reader.Close()
	}
}
