package catalog

// Token describes one bridgeable asset on one chain.
type Token struct {
	AssetID  string `json:"asset_id"`
	Chain    string `json:"chain"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// Entry is a catalog row: either a single base token or a unified token
// grouping the per-chain deployments of the same asset. Exactly one of the
// two fields is set.
type Entry struct {
	Base    *Token  `json:"base,omitempty"`
	Unified []Token `json:"unified,omitempty"`
}

// Flatten expands an entry into its concrete per-chain tokens. It is total:
// a malformed entry flattens to an empty slice rather than panicking.
func (e Entry) Flatten() []Token {
	switch {
	case e.Base != nil:
		return []Token{*e.Base}
	case len(e.Unified) > 0:
		out := make([]Token, len(e.Unified))
		copy(out, e.Unified)
		return out
	default:
		return nil
	}
}
