package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ping-onramp/config"
	"ping-onramp/pkg/withdrawal"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past withdrawals",
	Long: `List persisted withdrawal records, newest first.

Each record carries the request, the stages it passed through and its
terminal outcome; the record id is the reference to quote when contacting
support about a failed withdrawal.

Examples:
  ping-onramp history
  ping-onramp history --limit 5`,
	Run: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of records to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	history, err := withdrawal.NewHistory(cfg.HistoryPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	records := history.List()
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(records) == 0 {
		fmt.Println("\nNo withdrawals recorded yet.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 100))
	color.Green("                                  WITHDRAWAL HISTORY")
	fmt.Println(strings.Repeat("=", 100))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  DATE\tAMOUNT\tROUTE\tRECIPIENT\tOUTCOME\tREFERENCE")

	for _, record := range records {
		outcome := color.GreenString("delivered " + record.AmountOut)
		if record.Error != "" {
			outcome = color.RedString(truncate(record.Error, 40))
		} else if record.AmountOut == "" {
			outcome = color.YellowString("in progress")
		}

		route := fmt.Sprintf("%s → %s", record.Request.DepositChain, record.Request.TargetChain)
		fmt.Fprintf(w, "  %s\t%s %s\t%s\t%s\t%s\t%s\n",
			record.CreatedAt.Local().Format("2006-01-02 15:04"),
			record.Request.FiatAmount,
			record.Request.TargetAsset,
			route,
			truncate(record.Request.RecipientAddress, 24),
			outcome,
			color.HiBlackString(record.ID[:8]))
	}
	w.Flush()

	fmt.Println("\n" + strings.Repeat("=", 100))
	fmt.Printf("\nTotal: %d withdrawals\n\n", history.Count())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
