package quote

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-onramp/pkg/catalog"
	"ping-onramp/pkg/relay"
)

var (
	usdcBase = catalog.Token{AssetID: "nep141:base-usdc", Chain: "base", Symbol: "USDC", Decimals: 6}
	usdcNear = catalog.Token{AssetID: "nep141:near-usdc", Chain: "near", Symbol: "USDC", Decimals: 6}
	wnear    = catalog.Token{AssetID: "nep141:wrap.near", Chain: "near", Symbol: "wNEAR", Decimals: 24}
)

// fakeQuoter scripts relay responses per (origin, destination) pair.
type fakeQuoter struct {
	quotes     map[string]*relay.Quote
	quoteErr   map[string]error
	storage    *big.Int
	storageErr error

	requests []relay.QuoteRequest
}

func (f *fakeQuoter) Quote(_ context.Context, req relay.QuoteRequest) (*relay.Quote, error) {
	f.requests = append(f.requests, req)
	k := req.OriginAsset + "->" + req.DestinationAsset
	if err, ok := f.quoteErr[k]; ok {
		return nil, err
	}
	q, ok := f.quotes[k]
	if !ok {
		return nil, &relay.APIError{StatusCode: 404, Reason: "no such pair"}
	}
	return q, nil
}

func (f *fakeQuoter) StorageDeposit(context.Context, string, string) (*big.Int, error) {
	if f.storageErr != nil {
		return nil, f.storageErr
	}
	if f.storage == nil {
		return big.NewInt(0), nil
	}
	return f.storage, nil
}

func primaryQuote(in, out int64) *relay.Quote {
	return &relay.Quote{
		DepositAddress: "0xdeposit",
		AmountIn:       big.NewInt(in),
		AmountOut:      big.NewInt(out),
		QuoteHash:      "qh-primary",
		Deadline:       time.Now().Add(30 * time.Minute),
	}
}

func TestAggregateWithoutActivation(t *testing.T) {
	fake := &fakeQuoter{
		quotes: map[string]*relay.Quote{
			"nep141:base-usdc->nep141:near-usdc": primaryQuote(100000000, 99500000),
		},
	}

	agg, err := NewAggregator(fake, "ping-onramp").Run(context.Background(), Params{
		Origin:      usdcBase,
		Destination: usdcNear,
		Activation:  wnear,
		AmountIn:    big.NewInt(100000000),
		Recipient:   "alice.near",
		RefundTo:    "0xrefund",
		Commit:      true,
	})
	require.NoError(t, err)

	assert.Nil(t, agg.Storage)
	assert.Zero(t, agg.StorageCost.Sign())
	assert.Equal(t, agg.GrossOut, agg.NetOut, "no activation: net equals gross")
	assert.Equal(t, []string{"qh-primary"}, agg.QuoteHashes())

	// fixed quoting parameters
	req := fake.requests[0]
	assert.Equal(t, relay.SwapTypeExactInput, req.SwapType)
	assert.Equal(t, SlippageToleranceBps, req.SlippageToleranceBps)
	assert.Equal(t, relay.ChainOrigin, req.DepositType)
	assert.Equal(t, relay.ChainDestination, req.RecipientType)
	assert.Equal(t, "ping-onramp", req.Referral)
	assert.False(t, req.Dry, "committed quote must not be dry")
	assert.WithinDuration(t, time.Now().Add(CommitDeadline), req.Deadline, time.Minute)
}

func TestAggregateWithActivation(t *testing.T) {
	required, _ := new(big.Int).SetString("1250000000000000000000", 10) // 0.00125 wNEAR
	fake := &fakeQuoter{
		quotes: map[string]*relay.Quote{
			"nep141:base-usdc->nep141:near-usdc": primaryQuote(100000000, 99500000),
			"nep141:near-usdc->nep141:wrap.near": {
				AmountIn:  big.NewInt(4100),
				AmountOut: required,
				QuoteHash: "qh-storage",
			},
		},
		storage: required,
	}

	agg, err := NewAggregator(fake, "ping-onramp").Run(context.Background(), Params{
		Origin:      usdcBase,
		Destination: usdcNear,
		Activation:  wnear,
		AmountIn:    big.NewInt(100000000),
		Recipient:   "fresh.near",
		RefundTo:    "0xrefund",
	})
	require.NoError(t, err)

	require.NotNil(t, agg.Storage)
	assert.Equal(t, big.NewInt(4100), agg.StorageCost)
	assert.Equal(t, big.NewInt(99500000-4100), agg.NetOut)
	assert.Equal(t, required, agg.ActivationAmount)
	assert.Equal(t, []string{"qh-primary", "qh-storage"}, agg.QuoteHashes())

	// net-amount invariant
	assert.Equal(t, agg.NetOut, new(big.Int).Sub(agg.GrossOut, agg.StorageCost))

	// activation leg is priced EXACT_OUTPUT for exactly the required amount
	storageReq := fake.requests[1]
	assert.Equal(t, relay.SwapTypeExactOutput, storageReq.SwapType)
	assert.Equal(t, required.String(), storageReq.Amount)
	assert.Equal(t, usdcNear.AssetID, storageReq.OriginAsset)
	assert.Equal(t, wnear.AssetID, storageReq.DestinationAsset)
}

func TestAggregateRouteNotFound(t *testing.T) {
	fake := &fakeQuoter{
		quoteErr: map[string]error{
			"nep141:base-usdc->nep141:near-usdc": &relay.APIError{StatusCode: 400, Reason: "insufficient liquidity"},
		},
	}

	_, err := NewAggregator(fake, "").Run(context.Background(), Params{
		Origin:      usdcBase,
		Destination: usdcNear,
		Activation:  wnear,
		AmountIn:    big.NewInt(100000000),
		Recipient:   "alice.near",
	})
	require.Error(t, err)

	var routeErr *RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Equal(t, "insufficient liquidity", routeErr.Reason)
}

func TestAggregateNonPositiveNet(t *testing.T) {
	required := big.NewInt(10)
	fake := &fakeQuoter{
		quotes: map[string]*relay.Quote{
			"nep141:base-usdc->nep141:near-usdc": primaryQuote(1000, 500),
			"nep141:near-usdc->nep141:wrap.near": {
				AmountIn:  big.NewInt(500), // costs the whole bridged amount
				AmountOut: required,
				QuoteHash: "qh-storage",
			},
		},
		storage: required,
	}

	_, err := NewAggregator(fake, "").Run(context.Background(), Params{
		Origin:      usdcBase,
		Destination: usdcNear,
		Activation:  wnear,
		AmountIn:    big.NewInt(1000),
		Recipient:   "fresh.near",
	})
	require.Error(t, err)

	var npErr *NonPositiveError
	assert.ErrorAs(t, err, &npErr)
}

func TestAggregateStorageCheckFailure(t *testing.T) {
	fake := &fakeQuoter{
		quotes: map[string]*relay.Quote{
			"nep141:base-usdc->nep141:near-usdc": primaryQuote(1000, 990),
		},
		storageErr: &relay.APIError{StatusCode: 500, Reason: "storage check unavailable"},
	}

	_, err := NewAggregator(fake, "").Run(context.Background(), Params{
		Origin:      usdcBase,
		Destination: usdcNear,
		Activation:  wnear,
		AmountIn:    big.NewInt(1000),
		Recipient:   "alice.near",
	})
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "storage check unavailable", storageErr.Reason)
}

func TestPreviewQuoteIsDryWithShortDeadline(t *testing.T) {
	fake := &fakeQuoter{
		quotes: map[string]*relay.Quote{
			"nep141:base-usdc->nep141:near-usdc": primaryQuote(1000, 990),
		},
	}

	_, err := NewAggregator(fake, "").Run(context.Background(), Params{
		Origin:      usdcBase,
		Destination: usdcNear,
		Activation:  wnear,
		AmountIn:    big.NewInt(1000),
		Recipient:   "alice.near",
		Commit:      false,
	})
	require.NoError(t, err)

	req := fake.requests[0]
	assert.True(t, req.Dry)
	assert.WithinDuration(t, time.Now().Add(PreviewDeadline), req.Deadline, time.Minute)
}
