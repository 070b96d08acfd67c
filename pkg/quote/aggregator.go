package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	log "github.com/sirupsen/logrus"

	"ping-onramp/pkg/catalog"
	"ping-onramp/pkg/relay"
)

// Quoting parameters fixed by the withdrawal flow.
const (
	SlippageToleranceBps = 100
	PreviewDeadline      = 5 * time.Minute
	CommitDeadline       = 30 * time.Minute
)

// RouteError means the relay could not price the primary swap.
type RouteError struct {
	Reason string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("no bridge route: %s", e.Reason)
}

// StorageError means the activation check or activation quote failed.
type StorageError struct {
	Reason string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("activation quote failed: %s", e.Reason)
}

// NonPositiveError means the activation cost consumed the whole bridged
// amount; the withdrawal must abort before anything is signed.
type NonPositiveError struct {
	Gross *big.Int
	Cost  *big.Int
}

func (e *NonPositiveError) Error() string {
	return fmt.Sprintf("activation cost %s exceeds bridged amount %s", e.Cost, e.Gross)
}

// Quoter is the slice of the relay client the aggregator needs.
type Quoter interface {
	Quote(ctx context.Context, req relay.QuoteRequest) (*relay.Quote, error)
	StorageDeposit(ctx context.Context, assetID, accountID string) (*big.Int, error)
}

// Params describes one aggregation run.
type Params struct {
	Origin      catalog.Token
	Destination catalog.Token
	// Activation is the asset funding destination-chain account activation,
	// swapped for only when the recipient needs it.
	Activation catalog.Token
	AmountIn   *big.Int
	Recipient  string
	RefundTo   string
	// Commit extends the quote deadline from the preview window to the
	// committed one.
	Commit bool
}

// Aggregate is the reconciled result of the primary quote and the optional
// activation quote. Invariant: GrossOut - StorageCost == NetOut > 0.
type Aggregate struct {
	Primary *relay.Quote
	Storage *relay.Quote

	GrossOut    *big.Int
	StorageCost *big.Int
	// ActivationAmount is the activation-asset amount the recipient must
	// receive; zero when no activation is needed.
	ActivationAmount *big.Int
	NetOut           *big.Int
}

// QuoteHashes lists the proofs to attach at publish time, primary first.
func (a *Aggregate) QuoteHashes() []string {
	hashes := []string{a.Primary.QuoteHash}
	if a.Storage != nil {
		hashes = append(hashes, a.Storage.QuoteHash)
	}
	return hashes
}

// Aggregator obtains the primary swap quote and, when the recipient needs a
// destination-chain activation deposit, a second quote covering it, then
// reconciles both into the net deliverable amount.
type Aggregator struct {
	quoter   Quoter
	referral string
}

// NewAggregator creates an aggregator.
func NewAggregator(quoter Quoter, referral string) *Aggregator {
	return &Aggregator{quoter: quoter, referral: referral}
}

// Run performs one aggregation. All arithmetic is integer, in the smallest
// unit of the respective asset.
func (a *Aggregator) Run(ctx context.Context, p Params) (*Aggregate, error) {
	deadline := time.Now().Add(PreviewDeadline)
	if p.Commit {
		deadline = time.Now().Add(CommitDeadline)
	}

	primary, err := a.quoter.Quote(ctx, relay.QuoteRequest{
		OriginAsset:          p.Origin.AssetID,
		DestinationAsset:     p.Destination.AssetID,
		Amount:               p.AmountIn.String(),
		Recipient:            p.Recipient,
		RefundTo:             p.RefundTo,
		RefundType:           relay.ChainOrigin,
		DepositType:          relay.ChainOrigin,
		RecipientType:        relay.ChainDestination,
		SwapType:             relay.SwapTypeExactInput,
		SlippageToleranceBps: SlippageToleranceBps,
		Deadline:             deadline,
		Referral:             a.referral,
		Dry:                  !p.Commit,
	})
	if err != nil {
		return nil, &RouteError{Reason: reasonOf(err)}
	}

	gross := new(big.Int).Set(primary.AmountOut)

	required, err := a.quoter.StorageDeposit(ctx, p.Destination.AssetID, p.Recipient)
	if err != nil {
		return nil, &StorageError{Reason: reasonOf(err)}
	}

	agg := &Aggregate{
		Primary:          primary,
		GrossOut:         gross,
		StorageCost:      big.NewInt(0),
		ActivationAmount: required,
		NetOut:           new(big.Int).Set(gross),
	}

	if required.Sign() > 0 {
		// Price the activation leg for exactly the required amount; its
		// implied input cost comes out of the bridged amount.
		storage, err := a.quoter.Quote(ctx, relay.QuoteRequest{
			OriginAsset:          p.Destination.AssetID,
			DestinationAsset:     p.Activation.AssetID,
			Amount:               required.String(),
			Recipient:            p.Recipient,
			RefundTo:             p.Recipient,
			RefundType:           relay.ChainDestination,
			DepositType:          relay.ChainDestination,
			RecipientType:        relay.ChainDestination,
			SwapType:             relay.SwapTypeExactOutput,
			SlippageToleranceBps: SlippageToleranceBps,
			Deadline:             deadline,
			Referral:             a.referral,
			Dry:                  !p.Commit,
		})
		if err != nil {
			return nil, &StorageError{Reason: reasonOf(err)}
		}

		agg.Storage = storage
		agg.StorageCost = new(big.Int).Set(storage.AmountIn)
		agg.NetOut.Sub(agg.NetOut, agg.StorageCost)
	}

	if agg.NetOut.Sign() <= 0 {
		return nil, &NonPositiveError{Gross: agg.GrossOut, Cost: agg.StorageCost}
	}

	log.WithFields(log.Fields{
		"gross": agg.GrossOut.String(),
		"cost":  agg.StorageCost.String(),
		"net":   agg.NetOut.String(),
	}).Debug("quotes reconciled")

	return agg, nil
}

// reasonOf pulls the short reason out of a relay error when present.
func reasonOf(err error) string {
	var apiErr *relay.APIError
	if errors.As(err, &apiErr) && apiErr.Reason != "" {
		return apiErr.Reason
	}
	return err.Error()
}
