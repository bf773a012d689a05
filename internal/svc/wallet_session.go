package svc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mantelijo/multichain-wallet/internal/eventbus"
	"github.com/Mantelijo/multichain-wallet/internal/orchestrator"
)

// RunWalletSession connects the Base wallet behind the configured provider
// and logs every state change until ctx is cancelled or the provider goes
// away.
func RunWalletSession(ctx context.Context, w *Wallets) error {
	if w.Provider == nil {
		return fmt.Errorf("wallet session needs an evm provider")
	}

	o := w.Orchestrator
	logState := eventbus.NewHandler(func(args ...any) {
		if len(args) == 0 {
			return
		}
		s, ok := args[0].(orchestrator.State)
		if !ok {
			return
		}
		slog.Info(
			"wallet state changed",
			slog.String("base_address", s.BaseAddress),
			slog.Uint64("base_chain_id", s.BaseChainID),
			slog.String("stacks_address", s.StacksAddress),
			slog.Bool("connecting", s.IsConnecting),
			slog.String("error", s.Error),
		)
	})
	o.OnStateChange(logState)
	defer o.OffStateChange(logState)

	o.Mount()
	defer o.Unmount()

	errorsCh := make(chan error, 1)

	// Provider notifications
	go func() {
		if err := w.Provider.Watch(ctx); err != nil && ctx.Err() == nil {
			errorsCh <- fmt.Errorf("provider watch failure: %w", err)
		}
	}()

	addr, err := o.ConnectBase(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect base wallet: %w", err)
	}
	if n, ok := w.Base.Network(); ok {
		slog.Info("base wallet connected",
			slog.String("address", addr),
			slog.String("explorer", n.AddressURL(addr)),
		)
	}
	if s := o.State(); s.StacksAddress != "" {
		slog.Info("stacks session restored",
			slog.String("address", s.StacksAddress),
			slog.String("explorer", w.Stacks.Network().AddressURL(s.StacksAddress)),
		)
	}

	select {
	case err := <-errorsCh:
		slog.Error(
			"wallet session encountered critical error",
			slog.Any("error", err),
		)
		return err
	case <-ctx.Done():
		slog.Info("wallet session stopped")
		return nil
	}
}
