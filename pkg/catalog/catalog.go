package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// ErrNotFound marks a (symbol, chain) pair with no mapped asset. Lookups
// never hit the network: a withdrawal must fail on an unmapped pair before
// any call leaves the process.
var ErrNotFound = errors.New("token not mapped")

// defaultEntries is the built-in catalog. It covers the assets the onramp
// flow actually moves; Refresh extends it with everything the relay lists.
var defaultEntries = []Entry{
	{Unified: []Token{
		{AssetID: "nep141:base-0x833589fcd6edb6e08f4c7c32d4f71b54bda02913.omft.near", Chain: "base", Symbol: "USDC", Decimals: 6},
		{AssetID: "nep141:arb-0xaf88d065e77c8cc2239327c5edb3a432268e5831.omft.near", Chain: "arbitrum", Symbol: "USDC", Decimals: 6},
		{AssetID: "nep141:sol-5ce3bf3a31af18be40ba30f721101b4341690186.omft.near", Chain: "solana", Symbol: "USDC", Decimals: 6},
		{AssetID: "nep141:17208628f84f5d6ad33f0da3bbbeb27ffcb398eac501a31bd6ad2011e36133a1", Chain: "near", Symbol: "USDC", Decimals: 6},
	}},
	{Base: &Token{AssetID: "nep141:wrap.near", Chain: "near", Symbol: "wNEAR", Decimals: 24}},
	{Base: &Token{AssetID: "nep141:eth.omft.near", Chain: "ethereum", Symbol: "ETH", Decimals: 18}},
}

// Catalog resolves (symbol, chain) pairs to asset descriptors. The built-in
// table answers lookups synchronously; Refresh merges in the token list
// published by the relay.
type Catalog struct {
	client *oneclick.APIClient
	ctx    context.Context

	mu     sync.RWMutex
	tokens map[string]Token
}

// New creates a catalog seeded with the built-in table. The JWT token is
// only needed for Refresh.
func New(jwtToken string) *Catalog {
	config := oneclick.NewConfiguration()
	ctx := context.WithValue(context.Background(), oneclick.ContextAccessToken, jwtToken)

	c := &Catalog{
		client: oneclick.NewAPIClient(config),
		ctx:    ctx,
		tokens: make(map[string]Token),
	}
	for _, entry := range defaultEntries {
		for _, token := range entry.Flatten() {
			c.tokens[key(token.Symbol, token.Chain)] = token
		}
	}
	return c
}

func key(symbol, chain string) string {
	return strings.ToUpper(symbol) + "/" + strings.ToLower(chain)
}

// Resolve returns the descriptor for a token on a specific chain. It is a
// pure in-memory lookup; unmapped pairs return ErrNotFound.
func (c *Catalog) Resolve(symbol, chain string) (Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	token, ok := c.tokens[key(symbol, chain)]
	if !ok {
		return Token{}, fmt.Errorf("token '%s' on chain '%s': %w", symbol, chain, ErrNotFound)
	}
	return token, nil
}

// List returns all known tokens.
func (c *Catalog) List() []Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Token, 0, len(c.tokens))
	for _, token := range c.tokens {
		out = append(out, token)
	}
	return out
}

// Refresh fetches the supported-token list from the relay and merges it into
// the catalog. Built-in entries are kept when the relay omits them.
func (c *Catalog) Refresh(ctx context.Context) error {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authCtx(ctx)).Execute()
	if err != nil {
		return fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, token := range resp {
		c.tokens[key(token.GetSymbol(), token.GetBlockchain())] = Token{
			AssetID:  token.GetAssetId(),
			Chain:    strings.ToLower(token.GetBlockchain()),
			Symbol:   token.GetSymbol(),
			Decimals: int32(token.GetDecimals()),
		}
	}
	return nil
}

// authCtx layers the request context over the authenticated base context.
func (c *Catalog) authCtx(ctx context.Context) context.Context {
	token := c.ctx.Value(oneclick.ContextAccessToken)
	return context.WithValue(ctx, oneclick.ContextAccessToken, token)
}
