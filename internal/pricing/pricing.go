// Package pricing derives totals and change from cart lines. Everything here is
// pure; rounding to cents happens only at presentation.
package pricing

import (
	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the store VAT rate.
var DefaultTaxRate = decimal.RequireFromString("0.12")

// DiscountPolicy is the extension point for discounts. Nothing computes
// discounts yet.
type DiscountPolicy interface {
	Discount(lines []domain.CartLine, subtotal decimal.Decimal) decimal.Decimal
}

type NoDiscount struct{}

func (NoDiscount) Discount([]domain.CartLine, decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// ComputeTotals returns subtotal, tax, discount and total for lines. A negative
// discount counts as zero and the total never goes below zero.
func ComputeTotals(lines []domain.CartLine, taxRate, discount decimal.Decimal) domain.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	tax := subtotal.Mul(taxRate)
	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return domain.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    total,
	}
}

// ComputeChange is tendered minus total. A negative result means the payment
// does not cover the total yet.
func ComputeChange(total, tendered decimal.Decimal) decimal.Decimal {
	return tendered.Sub(total)
}

// Calculator binds the configured tax rate and discount policy.
type Calculator struct {
	TaxRate   decimal.Decimal
	Discounts DiscountPolicy
}

func NewCalculator(taxRate decimal.Decimal, discounts DiscountPolicy) Calculator {
	if discounts == nil {
		discounts = NoDiscount{}
	}
	return Calculator{TaxRate: taxRate, Discounts: discounts}
}

func (c Calculator) Totals(lines []domain.CartLine) domain.Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	discounts := c.Discounts
	if discounts == nil {
		discounts = NoDiscount{}
	}
	return ComputeTotals(lines, c.TaxRate, discounts.Discount(lines, subtotal))
}
