// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals so repeated percentage edits never drift the
// way binary floating point does. The smallest currency unit is two fractional
// digits and every rounding in the engine is half-even (banker's rounding).
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of fractional digits of the smallest currency unit.
const CurrencyPlaces = 2

var hundred = decimal.NewFromInt(100)

func init() {
	// Currency crosses the API boundary as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// RoundMoney applies the engine-wide rounding rule.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CurrencyPlaces)
}

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-even to the smallest currency unit. Zero is a valid amount; signs,
// exponents and grouping separators are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.34 (half-even)
//	ParseAmount("12.355") -> 12.36
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Invalid("amount", "must not be empty")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, Invalid("amount", "malformed number")
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, Invalid("amount", "must be a non-negative number")
		}
	}
	if s == "." {
		return decimal.Zero, Invalid("amount", "malformed number")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalid("amount", "malformed number")
	}
	return RoundMoney(d), nil
}

// Percent returns part/whole*100 rounded to two places. ok is false when whole is zero.
func Percent(part, whole decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if whole.IsZero() {
		return decimal.Zero, false
	}
	return part.Div(whole).Mul(hundred).RoundBank(2), true
}

// SumAmounts adds up amounts without intermediate rounding.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
