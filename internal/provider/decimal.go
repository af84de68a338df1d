package provider

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundCents rounds v half away from zero to two decimal places.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ParseDecimal parses an upstream numeric string such as "2701.33".
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Change returns the absolute and percent change of price against ref,
// rounded to cents. Both are nil when ref is not positive.
func Change(price, ref float64) (*float64, *float64) {
	if !(ref > 0) {
		return nil, nil
	}
	p := decimal.NewFromFloat(price)
	r := decimal.NewFromFloat(ref)
	ch := p.Sub(r).Round(2)
	pct := ch.Div(r).Mul(decimal.NewFromInt(100)).Round(2)
	return Float(ch.InexactFloat64()), Float(pct.InexactFloat64())
}
