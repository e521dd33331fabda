// Package money provides an arbitrary-precision decimal for presentation
// paths only — slippage quotes and printed book levels. internal/orderbook
// imports it only for PrintBook and Slippage's display string; all matching
// arithmetic stays pure int64 minor units, grounded on
// exchange-common/pkg/decimal but restricted to read-only formatting.
package money

import (
	"math/big"
	"strings"
)

// Decimal is a big.Int-backed fixed-point number: value * 10^-scale.
type Decimal struct {
	value *big.Int
	scale int
}

// FromMinorUnits builds a Decimal from an integer minor-unit amount (e.g.
// cents) and the number of fractional digits that amount represents.
func FromMinorUnits(v int64, scale int) *Decimal {
	return &Decimal{value: big.NewInt(v), scale: scale}
}

// String renders the decimal with trailing fractional zeros trimmed.
func (d *Decimal) String() string {
	if d == nil || d.value == nil {
		return "0"
	}
	s := d.value.String()
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	if d.scale == 0 {
		if negative {
			return "-" + s
		}
		return s
	}
	for len(s) <= d.scale {
		s = "0" + s
	}
	pos := len(s) - d.scale
	result := strings.TrimRight(s[:pos]+"."+s[pos:], "0")
	result = strings.TrimRight(result, ".")
	if negative {
		return "-" + result
	}
	return result
}

// Div divides d by other, truncating to scale fractional digits.
func (d *Decimal) Div(other *Decimal, scale int) *Decimal {
	if other.value.Sign() == 0 {
		return FromMinorUnits(0, scale)
	}
	targetScale := scale + other.scale
	scaleDiff := targetScale - d.scale
	dividend := new(big.Int).Set(d.value)
	if scaleDiff > 0 {
		dividend.Mul(dividend, pow10(scaleDiff))
	} else if scaleDiff < 0 {
		dividend.Div(dividend, pow10(-scaleDiff))
	}
	result := new(big.Int).Div(dividend, other.value)
	return &Decimal{value: result, scale: scale}
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// FormatPrice renders a minor-units price with the given display scale,
// e.g. FormatPrice(10250, 2) -> "102.5".
func FormatPrice(minorUnits int64, scale int) string {
	return FromMinorUnits(minorUnits, scale).String()
}
