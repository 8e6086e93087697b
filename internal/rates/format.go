package rates

import "github.com/shopspring/decimal"

const (
	// DefaultDecimals is used when the feed gives no precision hint.
	DefaultDecimals = 4
	// InverseDecimals is the fixed precision for AUD-per-unit values, which
	// are often far smaller than the quoted rate.
	InverseDecimals = 6
	// MaxDecimals bounds the feed's precision hint when rendering.
	MaxDecimals = 12
)

// FormatValue renders v rounded to the precision hint. A missing hint, or
// one outside [0, MaxDecimals], renders with DefaultDecimals.
func FormatValue(v float64, decimals *int) string {
	return decimal.NewFromFloat(v).StringFixed(displayPlaces(decimals))
}

func displayPlaces(decimals *int) int32 {
	if decimals == nil || *decimals < 0 || *decimals > MaxDecimals {
		return DefaultDecimals
	}
	return int32(*decimals)
}

// FormatInverse renders an AUD-per-unit value.
func FormatInverse(v *float64) string {
	if v == nil {
		return "-"
	}
	return decimal.NewFromFloat(*v).StringFixed(InverseDecimals)
}
