package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ping-onramp",
	Short: "A CLI for fiat onramp withdrawals settled over cross-chain intents",
	Long: `ping-onramp orchestrates the withdrawal half of a fiat onramp: once a
payment processor has delivered a stablecoin deposit on a bridge chain, it
quotes the cross-chain swap, builds and signs the intent message, publishes it
to the settlement relay and waits for the funds to land on the target chain.

Examples:
  ping-onramp withdraw 100 USDC to near --deposit-chain base --recipient alice.near
  ping-onramp status <intent-hash> --watch
  ping-onramp tokens
  ping-onramp history`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetLevel(log.WarnLevel)
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
