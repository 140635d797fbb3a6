package orders

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineAmount = (basePrice + priceDiff) * (1 - discount/100) * qty.
// Semua harga dalam minor unit; pembulatan half-up hanya di akhir.
func LineAmount(discountPercent *float64, basePrice, priceDiff int64, qty int) int64 {
	factor := decimal.NewFromInt(1)
	if discountPercent != nil && *discountPercent != 0 {
		factor = factor.Sub(decimal.NewFromFloat(*discountPercent).Div(hundred))
	}
	unit := decimal.NewFromInt(basePrice + priceDiff)
	return unit.Mul(factor).Mul(decimal.NewFromInt(int64(qty))).Round(0).IntPart()
}
