// Package money implements the invoice amount arithmetic. All monetary values
// are int64 minor currency units (cents); fractional factors such as
// quantities, tax rates and percentage discounts are decimal.Decimal.
// Rounding is round-half-away-from-zero, the behaviour of decimal's Round.
package money

import "github.com/shopspring/decimal"

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// LineTotal computes quantity * unitPrice rounded to the nearest minor unit.
func LineTotal(quantity decimal.Decimal, unitPrice int64) int64 {
	return quantity.Mul(decimal.NewFromInt(unitPrice)).Round(0).IntPart()
}

// Subtotal sums line totals.
func Subtotal(lineTotals []int64) int64 {
	var sum int64
	for _, t := range lineTotals {
		sum += t
	}
	return sum
}

// TaxAmount computes subtotal * taxRate / 100 rounded to the nearest minor
// unit. taxRate is a percentage (8 means 8%).
func TaxAmount(subtotal int64, taxRate decimal.Decimal) int64 {
	return decimal.NewFromInt(subtotal).Mul(taxRate).Div(hundred).Round(0).IntPart()
}

// DiscountAmount computes the discount in minor units. Percentage discounts
// are taken from the subtotal and rounded; fixed discounts are already minor
// units and used verbatim. A zero-valued or unset discount yields 0.
func DiscountAmount(subtotal int64, kind DiscountType, value decimal.Decimal) int64 {
	if value.IsZero() {
		return 0
	}
	switch kind {
	case DiscountPercentage:
		return decimal.NewFromInt(subtotal).Mul(value).Div(hundred).Round(0).IntPart()
	case DiscountFixed:
		return value.Round(0).IntPart()
	default:
		return 0
	}
}

// Total computes the grand total. The result may be negative when the
// discount exceeds subtotal + tax; no clamping is applied.
func Total(subtotal, taxAmount, discountAmount int64) int64 {
	return subtotal + taxAmount - discountAmount
}
