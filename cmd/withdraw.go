package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ping-onramp/config"
	"ping-onramp/pkg/catalog"
	"ping-onramp/pkg/deposit"
	"ping-onramp/pkg/progress"
	"ping-onramp/pkg/relay"
	"ping-onramp/pkg/signing"
	"ping-onramp/pkg/withdrawal"
)

var (
	depositChain    string
	recipientAddr   string
	refundAddr      string
	depositAccount  string
	tokenContract   string
	relayWatchAddr  string
	noConfirm       bool
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <amount> <asset> to <chain>",
	Short: "Run a withdrawal once the fiat purchase is confirmed",
	Long: `Withdraw a fiat-purchased deposit to a balance on another chain.

The deposit asset arrives on the deposit chain from the payment processor;
this command waits for it, quotes the cross-chain swap, signs the intent and
follows settlement until the funds land with the recipient.

IMPORTANT:
  - You MUST specify --deposit-chain (where the processor delivers the asset)
  - You MUST specify --recipient (the receiving account on the target chain)

Examples:
  # Withdraw 100 USDC purchased on Base to a NEAR account
  ping-onramp withdraw 100 USDC to near --deposit-chain base --recipient alice.near

  # With an explicit refund address and no confirmation prompt
  ping-onramp withdraw 50 USDC to near --deposit-chain arbitrum --recipient bob.near --refund-to 0xabc... --yes

  # Detect the deposit through the relay instead of chain RPC
  ping-onramp withdraw 100 USDC to near --deposit-chain base --recipient alice.near --relay-watch <deposit-address>`,
	Args: cobra.MinimumNArgs(1),
	Run:  runWithdraw,
}

func init() {
	rootCmd.AddCommand(withdrawCmd)

	withdrawCmd.Flags().StringVar(&depositChain, "deposit-chain", "", "Chain the processor delivers the deposit on (REQUIRED)")
	withdrawCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient account on the target chain (REQUIRED)")
	withdrawCmd.Flags().StringVar(&refundAddr, "refund-to", "", "Refund address on the deposit chain (defaults to the signer address)")
	withdrawCmd.Flags().StringVar(&depositAccount, "deposit-account", "", "Account holding the deposit (defaults to the signer address)")
	withdrawCmd.Flags().StringVar(&tokenContract, "token-contract", "", "Deposit token contract on the deposit chain (empty for the native asset)")
	withdrawCmd.Flags().StringVar(&relayWatchAddr, "relay-watch", "", "Detect the deposit via the relay for this deposit address instead of chain RPC")
	withdrawCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

// parseWithdrawCommand parses "<amount> <asset> to <chain>", e.g.
// "100 USDC to near".
func parseWithdrawCommand(command string) (amount, asset, chain string, err error) {
	command = strings.TrimSpace(command)

	pattern := regexp.MustCompile(`(?i)^(\d+\.?\d*)\s+([A-Za-z0-9]+)\s+to\s+([A-Za-z0-9]+)$`)
	matches := pattern.FindStringSubmatch(command)
	if matches == nil {
		return "", "", "", fmt.Errorf("invalid withdraw command format. Expected: 'withdraw <amount> <asset> to <chain>' (e.g., 'withdraw 100 USDC to near')")
	}

	return matches[1], strings.ToUpper(matches[2]), strings.ToLower(matches[3]), nil
}

func runWithdraw(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	amount, asset, targetChain, err := parseWithdrawCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if depositChain == "" {
		printError(fmt.Errorf("--deposit-chain is required"))
		os.Exit(1)
	}
	if recipientAddr == "" {
		printError(fmt.Errorf("--recipient is required. Use --recipient to specify where you want to receive the tokens"))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if cfg.SignerKey == "" {
		printError(fmt.Errorf("signer key not configured. Set PING_ONRAMP_SIGNER_KEY or signer_key in the config file"))
		os.Exit(1)
	}

	signer, err := signing.NewLocalSigner(cfg.SignerKey)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	req := withdrawal.Request{
		DepositChain:     depositChain,
		TargetChain:      targetChain,
		TargetAsset:      asset,
		FiatAmount:       amount,
		RecipientAddress: recipientAddr,
		RefundAddress:    refundAddr,
	}

	if !jsonOutput {
		displayWithdrawal(req)
	}
	if !noConfirm && !jsonOutput {
		if !confirmWithdrawal() {
			fmt.Println("\nWithdrawal cancelled.")
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := progress.NewTracker()
	renderer := newStageRenderer(jsonOutput)
	tracker.Subscribe(renderer)
	tracker.SubscribeDisplay(renderer)

	account := depositAccount
	if account == "" {
		account = signer.Identity()
	}

	watcher, err := buildWatcherFactory(ctx, cfg, account)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	history, err := withdrawal.NewHistory(cfg.HistoryPath)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	saga := withdrawal.New(withdrawal.Deps{
		Catalog: catalog.New(cfg.JWTToken),
		Relay:   relay.NewClient(cfg.RelayURL, cfg.JWTToken),
		Signer:  signer,
		Watcher: watcher,
		Tracker: tracker,
		History: history,
		Config:  cfg,
	})

	result, err := saga.Run(ctx, req)
	renderer.stop()

	if err != nil {
		display := tracker.Display()
		if !jsonOutput {
			color.Red("\n✗ %s", display.Err)
			if display.Message != "" && display.Message != display.Err {
				fmt.Printf("\n%s\n", display.Message)
			}
			fmt.Println()
		} else {
			jsonData, _ := json.MarshalIndent(map[string]string{"error": display.Err}, "", "  ")
			fmt.Println(string(jsonData))
		}
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  Delivered:     %s\n", color.GreenString(result.AmountOut))
	if result.ExplorerURL != "" {
		fmt.Printf("  Explorer:      %s\n", color.CyanString(result.ExplorerURL))
	}
	fmt.Printf("  Intent Hash:   %s\n\n", color.HiBlackString(result.IntentHash))
}

// buildWatcherFactory records the deposit-account baseline now, before the
// user is redirected to the payment provider, and returns the factory the
// saga calls once the expected amount is known.
func buildWatcherFactory(ctx context.Context, cfg *config.Config, account string) (withdrawal.WatcherFactory, error) {
	if relayWatchAddr != "" {
		client := oneclick.NewAPIClient(oneclick.NewConfiguration())
		return func(req withdrawal.Request, expected *big.Int) (deposit.Watcher, error) {
			return deposit.NewRelayWatcher(client, cfg.JWTToken, relayWatchAddr, cfg.DepositPollInterval, cfg.DepositTimeout), nil
		}, nil
	}

	reader, err := deposit.ReaderForChain(cfg, depositChain, account, tokenContract)
	if err != nil {
		return nil, err
	}
	baseline, err := reader.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read the pre-deposit balance: %w", err)
	}

	return func(req withdrawal.Request, expected *big.Int) (deposit.Watcher, error) {
		return deposit.NewPollWatcher(reader, baseline, expected, cfg.DepositPollInterval, cfg.DepositTimeout), nil
	}, nil
}

func displayWithdrawal(req withdrawal.Request) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      WITHDRAWAL")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Amount:         %s %s\n", req.FiatAmount, color.YellowString(req.TargetAsset))
	fmt.Printf("  Deposit Chain:  %s\n", req.DepositChain)
	fmt.Printf("  Target Chain:   %s\n", req.TargetChain)
	fmt.Printf("  Recipient:      %s\n", color.CyanString(req.RecipientAddress))
	if req.RefundAddress != "" {
		fmt.Printf("  Refund To:      %s\n", req.RefundAddress)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

func confirmWithdrawal() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with withdrawal? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// stageRenderer drives the terminal spinner from progress events.
type stageRenderer struct {
	spin  *spinner.Spinner
	quiet bool
}

func newStageRenderer(quiet bool) *stageRenderer {
	return &stageRenderer{
		spin:  spinner.New(spinner.CharSets[14], 100*time.Millisecond),
		quiet: quiet,
	}
}

func (r *stageRenderer) OnProgress(stage progress.Stage) {
	if r.quiet {
		return
	}
	switch stage {
	case progress.StageDone:
		r.spin.Stop()
		color.Green("\n✓ Withdrawal complete")
	case progress.StageError:
		r.spin.Stop()
	default:
		if !r.spin.Active() {
			r.spin.Start()
		}
	}
}

func (r *stageRenderer) OnDisplay(patch progress.Patch) {
	if r.quiet {
		return
	}
	if patch.Message != nil {
		r.spin.Suffix = " " + *patch.Message
	}
}

func (r *stageRenderer) stop() {
	if r.spin.Active() {
		r.spin.Stop()
	}
}
