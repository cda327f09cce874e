package services

import (
	"github.com/shopspring/decimal"

	"autovalor/rate"
)

// Normalize converts a raw listing price into both currencies. Foreign
// prices are multiplied by rate; local prices are divided by it. Results are
// rounded half away from zero and never negative.
func Normalize(raw int64, isUSD bool, r float64) (local, usd int64) {
	if raw <= 0 {
		return 0, 0
	}
	if r <= 0 {
		r = rate.FallbackRate
	}

	amount := decimal.NewFromInt(raw)
	factor := decimal.NewFromFloat(r)

	if isUSD {
		return amount.Mul(factor).Round(0).IntPart(), raw
	}
	return raw, amount.Div(factor).Round(0).IntPart()
}
