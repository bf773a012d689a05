package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Mantelijo/multichain-wallet/internal/config"
	"github.com/Mantelijo/multichain-wallet/internal/svc"
	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Connect the Base wallet and follow account and network changes",
		Long: `session asks the wallet behind EVM_PROVIDER_URL for its accounts,
switches it to BASE_CHAIN_ID and logs every account, network or connection
change until interrupted. A persisted Stacks session is restored and shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := svc.Setup(config.EVM_PROVIDER_URL)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := svc.NewWallets(ctx, settings, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			return svc.RunWalletSession(ctx, w)
		},
	}
}
