package withdrawal

// Request describes one withdrawal. It is created once from the confirmed
// payment-callback parameters and never mutated.
type Request struct {
	// DepositChain is the chain the fiat processor delivers the purchased
	// asset on.
	DepositChain string `json:"deposit_chain"`
	// TargetChain and TargetAsset identify what the recipient receives.
	TargetChain string `json:"target_chain"`
	TargetAsset string `json:"target_asset"`
	// FiatAmount is the purchased amount as a decimal string, denominated in
	// the deposit asset.
	FiatAmount string `json:"fiat_amount"`

	RecipientAddress string `json:"recipient_address"`
	// RefundAddress receives the deposit back if the swap cannot complete.
	// Defaults to the signer identity when empty.
	RefundAddress string `json:"refund_address,omitempty"`
}

// Result is the terminal outcome of a successful withdrawal.
type Result struct {
	// AmountOut is the delivered amount as a display decimal string in the
	// target asset.
	AmountOut   string `json:"amount_out"`
	ExplorerURL string `json:"explorer_url"`
	IntentHash  string `json:"intent_hash"`
}
