package intents

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"ping-onramp/pkg/catalog"
	"ping-onramp/pkg/quote"
)

// Builder assembles the ordered token-diff legs of a withdrawal into one
// signable message.
type Builder struct {
	referral string
	withdraw WithdrawMessageBuilder
}

// NewBuilder creates a builder. Every leg it produces carries the referral
// tag.
func NewBuilder(referral string, withdraw WithdrawMessageBuilder) *Builder {
	return &Builder{referral: referral, withdraw: withdraw}
}

// BuildParams collects everything a message needs.
type BuildParams struct {
	Aggregate   *quote.Aggregate
	Origin      catalog.Token
	Destination catalog.Token
	Activation  catalog.Token
	Recipient   string
	SignerID    string
	Deadline    time.Time
}

// Build produces the canonical message. The legs array starts from the
// withdrawal leg; the storage leg (if any) is inserted in front of it, and
// the primary swap leg is then inserted in front of that — so the primary
// leg always precedes the storage leg. The relay's netting depends on this
// order.
func (b *Builder) Build(p BuildParams) (*Message, error) {
	agg := p.Aggregate

	withdrawLeg, err := b.withdraw.BuildWithdrawLeg(WithdrawParams{
		Token:            p.Destination,
		Recipient:        p.Recipient,
		Amount:           agg.NetOut,
		ActivationAmount: agg.ActivationAmount,
		Referral:         b.referral,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build withdrawal leg: %w", err)
	}

	legs := []json.RawMessage{withdrawLeg}

	if agg.Storage != nil {
		storageLeg, err := b.tokenDiffLeg(map[string]*big.Int{
			p.Destination.AssetID: new(big.Int).Neg(agg.StorageCost),
			p.Activation.AssetID:  agg.ActivationAmount,
		})
		if err != nil {
			return nil, err
		}
		legs = prepend(legs, storageLeg)
	}

	primaryLeg, err := b.tokenDiffLeg(map[string]*big.Int{
		p.Origin.AssetID:      new(big.Int).Neg(agg.Primary.AmountIn),
		p.Destination.AssetID: agg.GrossOut,
	})
	if err != nil {
		return nil, err
	}
	legs = prepend(legs, primaryLeg)

	return newMessage(p.SignerID, p.Deadline, legs)
}

func (b *Builder) tokenDiffLeg(diff map[string]*big.Int) (json.RawMessage, error) {
	leg := TokenDiffLeg{
		Intent:   IntentTokenDiff,
		Diff:     make(map[string]string, len(diff)),
		Referral: b.referral,
	}
	for assetID, delta := range diff {
		leg.Diff[assetID] = delta.String()
	}

	raw, err := json.Marshal(leg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token diff leg: %w", err)
	}
	return raw, nil
}

func prepend(legs []json.RawMessage, leg json.RawMessage) []json.RawMessage {
	return append([]json.RawMessage{leg}, legs...)
}
