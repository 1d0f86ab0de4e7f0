// Package money defines the monetary arithmetic policy for the ledger.
//
// All amounts are exact decimals with a fixed scale of two places, carried as
// shopspring decimal values end to end. Division and percentage computations
// use banker's rounding. Amounts cross the API boundary as decimal strings,
// never as binary floating point.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the fixed number of decimal places for all stored amounts.
const Scale = 2

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Parse converts a decimal string into an amount quantized to two places.
// Inputs with more than two fractional digits are rejected rather than
// silently rounded, so callers can never lose sub-cent precision on entry.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal amount %q: %w", s, err)
	}
	if d.Exponent() < -Scale {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", s, Scale)
	}
	return d.Round(Scale), nil
}

// ParsePositive is Parse restricted to strictly positive amounts.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be greater than zero, got %q", s)
	}
	return d, nil
}

// FromCents converts an integer amount in minor units to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Cents converts an amount to integer minor units.
func Cents(d decimal.Decimal) int64 {
	return d.Shift(Scale).IntPart()
}

// Round quantizes an amount to the fixed scale using banker's rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

// Div divides a by b with banker's rounding at the fixed scale.
func Div(a, b decimal.Decimal) decimal.Decimal {
	return a.Div(b).RoundBank(Scale)
}

// Percent computes pct percent of amount, banker's-rounded to the fixed scale.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).RoundBank(Scale)
}

// String formats an amount with exactly two decimal places.
func String(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
