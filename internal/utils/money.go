package utils

import "github.com/shopspring/decimal"

// CurrencyScale is the number of fractional digits amounts may carry.
const CurrencyScale = 2

// MaxAmount is the largest value a NUMERIC(15,2) column holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// Exponent window checked before any arithmetic. Comparing or rescaling a
// decimal allocates 10^|exp|, so inputs like 1e2000000000 are refused here.
const (
	minAmountExponent = -32
	maxAmountExponent = 12
)

// IsValidAmount reports whether d is positive, at most MaxAmount and has at
// most CurrencyScale fractional digits.
func IsValidAmount(d decimal.Decimal) bool {
	if d.Sign() <= 0 {
		return false
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return false
	}
	if d.GreaterThan(MaxAmount) {
		return false
	}
	return d.Equal(d.Truncate(CurrencyScale))
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(CurrencyScale)
}
