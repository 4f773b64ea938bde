// Package provider holds the normalization helpers shared by the venue and
// market data adapters.
package provider

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UserAgent is the browser user agent sent to the venue APIs,
// which reject requests without one
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var hundred = decimal.NewFromInt(100)

// CompletionRate normalizes a venue-reported completion rate into [0, 100].
// Venues report either a fraction (<= 1) or a percentage.
// The result is rounded to 1 decimal place
func CompletionRate(raw decimal.Decimal) float64 {
	rate := raw
	if rate.LessThanOrEqual(decimal.NewFromInt(1)) {
		rate = rate.Mul(hundred)
	}

	switch {
	case rate.IsNegative():
		rate = decimal.Zero
	case rate.GreaterThan(hundred):
		rate = hundred
	}

	return rate.Round(1).InexactFloat64()
}

// ParseDecimal parses a numeric venue value, returning 0 if it's malformed
func ParseDecimal(value string) decimal.Decimal {
	v := strings.TrimSpace(value)
	if v == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}

	return d
}

// Round rounds the value to the given number of decimal places
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}
