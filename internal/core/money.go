// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals. Parsing rounds half-up to the field's precision
// (2 places for money, 1 for distance); aggregation keeps full precision and
// only formatting rounds.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	MoneyPlaces    = 2
	DistancePlaces = 1
)

// ParseAmount converts a user-entered decimal string to a signed amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("-3")     -> -3.00
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s, MoneyPlaces, true)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseOptionalAmount returns nil for an empty input, matching the entry form
// where a blank card field means "not supplied" rather than zero.
func ParseOptionalAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseDistance parses a non-negative kilometre value, blank meaning absent.
func ParseDistance(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseDecimal(s, DistancePlaces, false)
	if err != nil {
		return nil, ErrInvalidDistance
	}
	return &d, nil
}

func parseDecimal(s string, places int32, signed bool) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		if !signed {
			return decimal.Zero, ErrInvalidAmount
		}
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(places)
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// FormatMoney renders an amount with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// FormatDistance renders kilometres with exactly one decimal place.
func FormatDistance(d decimal.Decimal) string {
	return d.StringFixed(DistancePlaces)
}

// FormatOptionalMoney renders an absent value as zero, never blank.
func FormatOptionalMoney(d *decimal.Decimal) string {
	return FormatMoney(ValueOrZero(d))
}

// FormatOptionalDistance renders an absent value as zero, never blank.
func FormatOptionalDistance(d *decimal.Decimal) string {
	return FormatDistance(ValueOrZero(d))
}

// ValueOrZero dereferences an optional field, treating absent as zero.
func ValueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
