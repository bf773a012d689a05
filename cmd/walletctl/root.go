package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "walletctl",
	Short: "Drive Base and Stacks wallets from the terminal",
	Long: `walletctl connects a Base wallet through an EIP-1193 style provider,
restores a persisted Stacks session and follows transactions on both chains
until they are final. Configuration is read from the environment and .env.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. rejected prompts, failed transactions)
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newTxCmd())
	rootCmd.AddCommand(newReadCmd())
}
