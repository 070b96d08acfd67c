package progress

// Display is the human-readable projection of the workflow state. It is
// updated in lock-step with the stage.
type Display struct {
	Message     string `json:"message"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	ExplorerURL string `json:"explorer_url"`
	Err         string `json:"error"`
}

// Patch is a partial Display update. Nil fields leave the current value
// untouched; non-nil fields overwrite it, later patches winning.
type Patch struct {
	Message     *string
	AmountIn    *string
	AmountOut   *string
	ExplorerURL *string
	Err         *string
}

// Str returns a pointer to s, for building patches inline.
func Str(s string) *string {
	return &s
}

// Apply merges a patch into a display value and returns the result.
func Apply(d Display, p Patch) Display {
	if p.Message != nil {
		d.Message = *p.Message
	}
	if p.AmountIn != nil {
		d.AmountIn = *p.AmountIn
	}
	if p.AmountOut != nil {
		d.AmountOut = *p.AmountOut
	}
	if p.ExplorerURL != nil {
		d.ExplorerURL = *p.ExplorerURL
	}
	if p.Err != nil {
		d.Err = *p.Err
	}
	return d
}
