package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ping-onramp/config"
	"ping-onramp/pkg/relay"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <intent-hash>",
	Short: "Check the settlement status of a published withdrawal",
	Long: `Check the settlement status of a published withdrawal by its intent hash.

Examples:
  ping-onramp status 7g1kD...9aF
  ping-onramp status 7g1kD...9aF --watch
  ping-onramp status 7g1kD...9aF --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	intentHash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := relay.NewClient(cfg.RelayURL, cfg.JWTToken)

	if watchStatus {
		watchSettlement(client, intentHash, jsonOutput)
	} else {
		checkSettlement(client, intentHash, jsonOutput)
	}
}

func checkSettlement(client *relay.Client, intentHash string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking settlement status..."
		s.Start()
	}

	settlement, err := client.Status(context.Background(), intentHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(settlement, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySettlement(settlement, intentHash)
	}
}

func watchSettlement(client *relay.Client, intentHash string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching settlement (Intent Hash: %s)\n", color.CyanString(intentHash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for ; ; <-ticker.C {
		settlement, err := client.Status(context.Background(), intentHash)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		displaySettlement(settlement, intentHash)
		if settlement.Status.Terminal() {
			return
		}
	}
}

func displaySettlement(settlement *relay.Settlement, intentHash string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      SETTLEMENT STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Intent Hash:  %s\n", color.CyanString(intentHash))
	fmt.Printf("  Status:       %s\n", coloredStatus(settlement.Status))

	details := settlement.SwapDetails
	if details.AmountIn != "" {
		fmt.Printf("  Amount In:    %s\n", details.AmountIn)
	}
	if details.AmountOut != "" {
		fmt.Printf("  Amount Out:   %s\n", details.AmountOut)
	}
	for _, hash := range details.DestinationChainTxHashes {
		fmt.Printf("  Dest Tx:      %s\n", color.HiBlackString(hash))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredStatus(status relay.SettlementStatus) string {
	switch status {
	case relay.StatusSuccess:
		return color.GreenString(string(status))
	case relay.StatusProcessing, relay.StatusKnownDepositTx:
		return color.CyanString(string(status))
	case relay.StatusPendingDeposit:
		return color.YellowString(string(status))
	case relay.StatusRefunded, relay.StatusFailed, relay.StatusExpired:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
