package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ping-onramp/config"
	"ping-onramp/pkg/catalog"
)

var (
	filterChain  string
	filterSymbol string
	offlineOnly  bool
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List supported tokens",
	Long: `List the tokens the withdrawal flow can deliver.

By default the built-in catalog is merged with the token list published by
the settlement relay. You can filter tokens by blockchain or symbol.

Examples:
  ping-onramp tokens
  ping-onramp tokens --chain near
  ping-onramp tokens --symbol USDC
  ping-onramp tokens --offline`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by blockchain")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&offlineOnly, "offline", false, "Skip the relay refresh and list only the built-in catalog")
}

func runTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cat := catalog.New(cfg.JWTToken)

	if !offlineOnly {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Fetching supported tokens..."
			s.Start()
		}

		err = cat.Refresh(context.Background())
		if !jsonOutput {
			s.Stop()
		}
		if err != nil {
			color.Yellow("\nCould not refresh from the relay (%v); showing the built-in catalog.\n", err)
		}
	}

	tokens := cat.List()

	// Apply filters
	filtered := tokens[:0]
	for _, token := range tokens {
		if filterChain != "" && !strings.EqualFold(token.Chain, filterChain) {
			continue
		}
		if filterSymbol != "" && !strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
			continue
		}
		filtered = append(filtered, token)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(filtered)
}

func displayTokens(tokens []catalog.Token) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by blockchain
	tokensByChain := make(map[string][]catalog.Token)
	for _, token := range tokens {
		tokensByChain[token.Chain] = append(tokensByChain[token.Chain], token)
	}

	chains := make([]string, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(chain))
		fmt.Println(strings.Repeat("-", 90))

		chainTokens := tokensByChain[chain]
		sort.Slice(chainTokens, func(i, j int) bool {
			return chainTokens[i].Symbol < chainTokens[j].Symbol
		})

		for _, token := range chainTokens {
			assetID := token.AssetID
			if len(assetID) > 60 {
				assetID = assetID[:57] + "..."
			}

			fmt.Printf("  %-10s  %2d decimals  %s\n",
				color.YellowString(token.Symbol),
				token.Decimals,
				color.HiBlackString(assetID))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d blockchains\n\n", len(tokens), len(chains))
}
