package catalog

import "github.com/shopspring/decimal"

// FinalUnitPriceCents applies the product discount to the list price,
// rounding half up to whole cents.
func FinalUnitPriceCents(priceCents, discountPercent int) int {
	if discountPercent <= 0 {
		return priceCents
	}
	if discountPercent >= 100 {
		return 0
	}
	price := decimal.NewFromInt(int64(priceCents))
	factor := decimal.NewFromInt(int64(100 - discountPercent)).Div(decimal.NewFromInt(100))
	return int(price.Mul(factor).Round(0).IntPart())
}
