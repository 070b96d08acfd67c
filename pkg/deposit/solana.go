package deposit

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"ping-onramp/config"
)

// SolanaReader reads the deposit balance on Solana: the native lamport
// balance, or an SPL token balance when a mint address is given.
type SolanaReader struct {
	config  config.SolanaConfig
	client  *rpc.Client
	account solana.PublicKey
	mint    *solana.PublicKey
}

// NewSolanaReader connects to the Solana RPC and binds the reader to one
// account and optional token mint.
func NewSolanaReader(cfg config.SolanaConfig, account, tokenMint string) (*SolanaReader, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for Solana: %w", ErrMisconfigured)
	}

	owner, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit account address %q: %w", account, ErrMisconfigured)
	}

	reader := &SolanaReader{
		config:  cfg,
		client:  rpc.New(cfg.RPCUrl),
		account: owner,
	}

	if tokenMint != "" {
		mint, err := solana.PublicKeyFromBase58(tokenMint)
		if err != nil {
			return nil, fmt.Errorf("invalid token mint address %q: %w", tokenMint, ErrMisconfigured)
		}
		reader.mint = &mint
	}

	return reader, nil
}

// Balance implements BalanceReader.
func (r *SolanaReader) Balance(ctx context.Context) (*big.Int, error) {
	if r.mint == nil {
		balance, err := r.client.GetBalance(ctx, r.account, r.commitment())
		if err != nil {
			return nil, fmt.Errorf("failed to get balance: %w", err)
		}
		return new(big.Int).SetUint64(balance.Value), nil
	}

	tokenAccount, _, err := solana.FindAssociatedTokenAddress(r.account, *r.mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive associated token address: %w", err)
	}

	accountInfo, err := r.client.GetTokenAccountBalance(ctx, tokenAccount, r.commitment())
	if err != nil {
		// The token account is created by the first transfer in; until then
		// the balance is zero, not an error.
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "could not find account") {
			return big.NewInt(0), nil
		}
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}

	amount, ok := new(big.Int).SetString(accountInfo.Value.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse token balance %q", accountInfo.Value.Amount)
	}
	return amount, nil
}

// commitment returns the commitment level from config
func (r *SolanaReader) commitment() rpc.CommitmentType {
	switch strings.ToLower(r.config.Commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// Close closes any open connections
func (r *SolanaReader) Close() {
	// The Solana RPC client doesn't require explicit cleanup
}
