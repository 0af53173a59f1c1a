package orchestrator

import "github.com/shopspring/decimal"

var minOfferedPrice = decimal.NewFromInt(1)

// OfferedPrice is the driver's price for an order: rate × total rounded to cents, at least 1.00.
func OfferedPrice(total, rate float64) float64 {
	p := decimal.NewFromFloat(total).Mul(decimal.NewFromFloat(rate)).Round(2)
	if p.LessThan(minOfferedPrice) {
		p = minOfferedPrice
	}
	return p.InexactFloat64()
}
