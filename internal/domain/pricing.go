package domain

import "github.com/shopspring/decimal"

// FinalPriceCents applies a percentage discount to a unit price, rounding
// half-up to whole cents so every caller derives the same figure.
func FinalPriceCents(priceCents int64, discountPercent float64) int64 {
	if discountPercent <= 0 {
		return priceCents
	}
	if discountPercent >= 100 {
		return 0
	}
	price := decimal.NewFromInt(priceCents)
	factor := decimal.NewFromInt(100).Sub(decimal.NewFromFloat(discountPercent)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(0).IntPart()
}

// LineTotalCents is the discounted unit price times quantity.
func LineTotalCents(priceCents int64, discountPercent float64, qty int) int64 {
	return FinalPriceCents(priceCents, discountPercent) * int64(qty)
}
