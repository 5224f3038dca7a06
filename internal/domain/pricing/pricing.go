// Package pricing computes effective cart-line prices from a product's base
// price and an applied discount percentage. It is pure computation: no
// storage, no side effects. Inputs are validated upstream by the cart and
// coupon services.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Rate returns the per-unit price after applying a percentage discount to the
// base price, rounded to 2 decimal places. A percent of 0 returns the base
// price unchanged; 100 returns zero.
func Rate(base decimal.Decimal, percent int) decimal.Decimal {
	discount := base.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	return base.Sub(discount).Round(2)
}

// Total returns the line total for the given per-unit rate and quantity,
// rounded to 2 decimal places.
func Total(rate decimal.Decimal, quantity int) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
