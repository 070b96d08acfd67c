package quote

import (
	"fmt"
	"math/big"
	"strings"
)

// MaxDisplayDecimals caps the fractional digits of display amounts.
const MaxDisplayDecimals = 6

// ParseUnits converts a decimal string to an integer amount in the token's
// smallest unit. No floating point is involved; fractional digits beyond the
// token's precision are truncated, never rounded up.
func ParseUnits(decimal string, decimals int32) (*big.Int, error) {
	decimal = strings.TrimSpace(decimal)
	if decimal == "" {
		return nil, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(decimal, "-")
	decimal = strings.TrimPrefix(decimal, "-")

	whole, frac := decimal, ""
	if i := strings.IndexByte(decimal, '.'); i >= 0 {
		whole, frac = decimal[:i], decimal[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount format: %q", decimal)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount format: %q", decimal)
	}

	// Pad or truncate the fractional part to the token precision.
	if len(frac) > int(decimals) {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", int(decimals)-len(frac))

	amount, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount format: %q", decimal)
	}
	if negative {
		amount.Neg(amount)
	}
	return amount, nil
}

// FormatUnits renders a smallest-unit amount as a decimal string with at
// most maxFrac fractional digits, truncating (never rounding up) and
// trimming trailing zeros.
func FormatUnits(amount *big.Int, decimals int32, maxFrac int) string {
	if amount == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Abs(amount)
	if amount.Sign() < 0 {
		sign = "-"
	}

	digits := abs.String()
	if len(digits) <= int(decimals) {
		digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
	}

	split := len(digits) - int(decimals)
	whole, frac := digits[:split], digits[split:]

	if maxFrac < 0 {
		maxFrac = 0
	}
	if len(frac) > maxFrac {
		frac = frac[:maxFrac]
	}
	frac = strings.TrimRight(frac, "0")

	if frac == "" {
		return sign + whole
	}
	return sign + whole + "." + frac
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
