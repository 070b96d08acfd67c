package intents

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"ping-onramp/pkg/catalog"
)

// WithdrawParams describes the final delivery leg of an intent message.
type WithdrawParams struct {
	Token     catalog.Token
	Recipient string
	// Amount is the net deliverable amount in the token's smallest unit.
	Amount *big.Int
	// ActivationAmount is the activation-asset amount attached for account
	// activation; nil or zero when none is needed.
	ActivationAmount *big.Int
	Referral         string
}

// WithdrawMessageBuilder constructs the withdrawal leg of an intent message.
// The leg shape is chain-family specific, so it is an injected capability.
type WithdrawMessageBuilder interface {
	BuildWithdrawLeg(p WithdrawParams) (json.RawMessage, error)
}

// NEP141Withdraw builds ft_withdraw legs for NEP-141 tokens on NEAR.
type NEP141Withdraw struct{}

type nep141WithdrawLeg struct {
	Intent         string `json:"intent"`
	Token          string `json:"token"`
	ReceiverID     string `json:"receiver_id"`
	Amount         string `json:"amount"`
	StorageDeposit string `json:"storage_deposit,omitempty"`
	Referral       string `json:"referral,omitempty"`
}

// BuildWithdrawLeg implements WithdrawMessageBuilder.
func (NEP141Withdraw) BuildWithdrawLeg(p WithdrawParams) (json.RawMessage, error) {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}

	leg := nep141WithdrawLeg{
		Intent:     "ft_withdraw",
		Token:      strings.TrimPrefix(p.Token.AssetID, "nep141:"),
		ReceiverID: p.Recipient,
		Amount:     p.Amount.String(),
		Referral:   p.Referral,
	}
	if p.ActivationAmount != nil && p.ActivationAmount.Sign() > 0 {
		leg.StorageDeposit = p.ActivationAmount.String()
	}

	return json.Marshal(leg)
}
