package deposit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ping-onramp/config"
)

// ErrMisconfigured marks a fatal configuration problem (unknown chain,
// missing RPC endpoint, bad address). It is never retried; transient RPC
// failures are retried in place by the poll loop instead.
var ErrMisconfigured = errors.New("deposit watcher misconfigured")

// Watcher blocks until the purchased asset has arrived at the deposit
// address. Cancellable through the context.
type Watcher interface {
	WaitForDeposit(ctx context.Context) error
}

// TimeoutError reports that the expected balance increase never showed up
// within the deposit window.
type TimeoutError struct {
	Expected *big.Int
	Observed *big.Int
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("deposit not detected after %s: expected balance at least %s, observed %s",
		e.Elapsed, e.Expected, e.Observed)
}

// ReaderForChain builds the balance reader for a deposit chain. The baseline
// read happens before redirecting to the payment provider, so callers need
// the reader on its own as well as wrapped in a watcher.
func ReaderForChain(cfg *config.Config, chain, account, tokenContract string) (BalanceReader, error) {
	switch strings.ToLower(chain) {
	case "solana", "sol":
		return NewSolanaReader(cfg.Solana, account, tokenContract)
	default:
		network, exists := cfg.EVMNetworks[strings.ToLower(chain)]
		if !exists {
			return nil, fmt.Errorf("no deposit endpoint for chain '%s': %w", chain, ErrMisconfigured)
		}
		return NewEVMReader(network, account, tokenContract)
	}
}

// ForChain builds the balance-diff watcher for a deposit chain. The baseline
// is the balance recorded before redirecting to the payment provider;
// expectedIncrease is the purchased amount in smallest units.
func ForChain(cfg *config.Config, chain, account, tokenContract string, baseline, expectedIncrease *big.Int) (Watcher, error) {
	reader, err := ReaderForChain(cfg, chain, account, tokenContract)
	if err != nil {
		return nil, err
	}
	return NewPollWatcher(reader, baseline, expectedIncrease, cfg.DepositPollInterval, cfg.DepositTimeout), nil
}
