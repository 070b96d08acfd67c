package relay

import (
	"fmt"
	"math/big"
	"time"
)

// Swap pricing modes accepted by the relay.
const (
	SwapTypeExactInput  = "EXACT_INPUT"
	SwapTypeExactOutput = "EXACT_OUTPUT"
)

// Deposit, refund and recipient placement.
const (
	ChainOrigin      = "ORIGIN_CHAIN"
	ChainDestination = "DESTINATION_CHAIN"
)

// QuoteRequest asks the relay to price a swap between two assets. Amount is
// a decimal integer string in the smallest unit of the priced asset.
type QuoteRequest struct {
	OriginAsset          string    `json:"originAsset"`
	DestinationAsset     string    `json:"destinationAsset"`
	Amount               string    `json:"amount"`
	Recipient            string    `json:"recipient"`
	RefundTo             string    `json:"refundTo"`
	RefundType           string    `json:"refundType"`
	DepositType          string    `json:"depositType"`
	RecipientType        string    `json:"recipientType"`
	SwapType             string    `json:"swapType"`
	SlippageToleranceBps int       `json:"slippageToleranceBps"`
	Deadline             time.Time `json:"deadline"`
	Referral             string    `json:"referral,omitempty"`
	Dry                  bool      `json:"dry"`
}

// Quote is a priced, time-bound, single-use swap offer.
type Quote struct {
	DepositAddress string
	AmountIn       *big.Int
	AmountOut      *big.Int
	QuoteHash      string
	Deadline       time.Time
}

// SignedEnvelope carries a signed canonical intent message ready for
// publication.
type SignedEnvelope struct {
	Standard  string `json:"standard"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// PublishRequest submits a signed intent with the quote proofs that bind its
// execution price.
type PublishRequest struct {
	SignatureEnvelope SignedEnvelope `json:"signatureEnvelope"`
	SignerIdentity    string         `json:"signerIdentity"`
	QuoteHashes       []string       `json:"quoteHashes"`
}

// SettlementStatus is the relay-reported state of a published intent.
type SettlementStatus string

const (
	StatusPendingDeposit SettlementStatus = "PENDING_DEPOSIT"
	StatusKnownDepositTx SettlementStatus = "KNOWN_DEPOSIT_TX"
	StatusProcessing     SettlementStatus = "PROCESSING"
	StatusSuccess        SettlementStatus = "SUCCESS"
	StatusRefunded       SettlementStatus = "REFUNDED"
	StatusFailed         SettlementStatus = "FAILED"
	StatusExpired        SettlementStatus = "EXPIRED"
)

// Terminal reports whether the relay will not change this status again.
func (s SettlementStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusRefunded, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// SwapDetails reports the executed amounts and transaction hashes of a
// settled intent.
type SwapDetails struct {
	AmountIn                 string   `json:"amountIn"`
	AmountOut                string   `json:"amountOut"`
	DestinationChainTxHashes []string `json:"destinationChainTxHashes"`
}

// Settlement is the response to a settlement query.
type Settlement struct {
	Status      SettlementStatus `json:"status"`
	SwapDetails SwapDetails      `json:"swapDetails"`
}

// APIError is a normalized relay rejection: the HTTP status plus the short
// reason extracted from the response body.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("relay returned status code %d", e.StatusCode)
}
