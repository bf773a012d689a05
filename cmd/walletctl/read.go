package main

import (
	"fmt"

	"github.com/Mantelijo/multichain-wallet/internal/chain"
	"github.com/Mantelijo/multichain-wallet/internal/clarity"
	"github.com/Mantelijo/multichain-wallet/internal/svc"
	"github.com/spf13/cobra"
)

func newReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <base|stacks> <method> [args...]",
		Short: "Call a read-only method of the configured contract",
		Long: `read calls a view method of BASE_CONTRACT_ADDRESS (described by
BASE_CONTRACT_ABI) or a read-only function of
STACKS_CONTRACT_ADDRESS.STACKS_CONTRACT_NAME. Base arguments are given in
their abi form, e.g. 0x addresses and decimal or 0x integers. Stacks
arguments are hex encoded clarity values.`,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{string(chain.Base), string(chain.Stacks)},
		RunE: func(cmd *cobra.Command, args []string) error {
			chainName := chain.ChainName(args[0])
			if chainName != chain.Base && chainName != chain.Stacks {
				return fmt.Errorf("unknown chain %q", args[0])
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

			out := cmd.OutOrStdout()
			if chainName == chain.Stacks {
				v, err := svc.ReadStacksContract(cmd.Context(), w, args[1], args[2:])
				if err != nil {
					return err
				}
				encoded, err := clarity.ToHex(v)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "value: %v\n", clarity.Native(v))
				fmt.Fprintf(out, "hex:   %s\n", encoded)
				return nil
			}

			values, err := svc.ReadBaseContract(cmd.Context(), w, args[1], args[2:])
			if err != nil {
				return err
			}
			for i, v := range values {
				fmt.Fprintf(out, "%d: %v\n", i, v)
			}
			return nil
		},
	}
}
