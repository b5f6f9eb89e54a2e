// Package money converts prices between USD and the secondary currency (SYP)
// using a multiplicative exchange rate. All results are held at two decimal
// places; no rounding error is carried between calls.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places kept for monetary amounts.
const Precision = 2

var ErrInvalidRate = errors.New("exchange rate must be positive")

// UsdToSyr converts a USD price to the secondary currency.
func UsdToSyr(priceUsd, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return priceUsd.Round(Precision).Mul(rate).Round(Precision), nil
}

// SyrToUsd converts a secondary-currency amount back to USD.
func SyrToUsd(priceSyr, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return priceSyr.Round(Precision).DivRound(rate, Precision), nil
}

// RoundWhole rounds to an integer amount, half away from zero.
func RoundWhole(value decimal.Decimal) decimal.Decimal {
	return value.Round(0)
}

// FormatCurrency renders value with comma thousands separators and exactly
// two decimals, without a currency symbol: 1234567.5 -> "1,234,567.50".
func FormatCurrency(value decimal.Decimal) string {
	fixed := value.StringFixed(Precision)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// ParseCurrency accepts a string ("1,250.5", " 12 ") or a Go number and
// returns it normalised to two decimal places.
func ParseCurrency(input any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch v := input.(type) {
	case decimal.Decimal:
		d = v
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if cleaned == "" {
			return decimal.Zero, fmt.Errorf("parse currency: empty input")
		}
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse currency %q: %w", v, err)
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	default:
		return decimal.Zero, fmt.Errorf("parse currency: unsupported type %T", input)
	}
	return d.Round(Precision), nil
}
