package main

import (
	"fmt"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/Mantelijo/multichain-wallet/internal/svc"
	"github.com/spf13/cobra"
)

func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Follow transactions on Base and Stacks",
	}
	cmd.AddCommand(newTxWaitCmd())
	cmd.AddCommand(newTxStatusCmd())
	return cmd
}

func newTxWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "wait <base|stacks> <tx-id>",
		Short:     "Wait until a transaction is confirmed or fails",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(chain.Base), string(chain.Stacks)},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := svc.Setup()
			if err != nil {
				return err
			}

			w, err := svc.NewWallets(cmd.Context(), settings, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			res, err := svc.WaitForTransaction(cmd.Context(), w, chain.ChainName(args[0]), args[1])
			if err != nil {
				return err
			}
			printTxResult(cmd, res)
			return nil
		},
	}
}

func newTxStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status stacks <tx-id>",
		Short: "Show the current status of a Stacks transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chain.ChainName(args[0]) != chain.Stacks {
				return fmt.Errorf("status is only available for %s", chain.Stacks)
			}

			settings, err := svc.Setup()
			if err != nil {
				return err
			}

			w, err := svc.NewWallets(cmd.Context(), settings, nil)
			if err != nil {
				return err
			}
			defer w.Close()

			res, err := svc.StacksTransactionStatus(cmd.Context(), w, args[1])
			if err != nil {
				return err
			}
			printTxResult(cmd, res)
			return nil
		},
	}
}

func printTxResult(cmd *cobra.Command, res svc.TxResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "chain:    %s\n", res.Chain)
	fmt.Fprintf(out, "id:       %s\n", res.ID)
	fmt.Fprintf(out, "status:   %s\n", res.Status)
	if res.Explorer != "" {
		fmt.Fprintf(out, "explorer: %s\n", res.Explorer)
	}
}
