package pricing

import (
	"testing"

	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(id int64, qty int, price string) domain.CartLine {
	return domain.CartLine{ProductID: id, Quantity: qty, UnitPrice: money.MustParse(price), AvailableStock: 100}
}

type fixedDiscount string

func (f fixedDiscount) Discount([]domain.CartLine, decimal.Decimal) decimal.Decimal {
	return money.MustParse(string(f))
}

func TestComputeTotals_BasicSale(t *testing.T) {
	totals := ComputeTotals([]domain.CartLine{line(1, 2, "10.00")}, DefaultTaxRate, decimal.Zero)

	assert.Equal(t, "20.00", money.Format(totals.Subtotal))
	assert.Equal(t, "2.40", money.Format(totals.Tax))
	assert.Equal(t, "0.00", money.Format(totals.Discount))
	assert.Equal(t, "22.40", money.Format(totals.Total))

	change := ComputeChange(totals.AmountDue(), money.MustParse("25.00"))
	assert.Equal(t, "2.60", money.Format(change))
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, DefaultTaxRate, decimal.Zero)
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.Subtotal.IsZero())
}

func TestComputeTotals_IsPure(t *testing.T) {
	lines := []domain.CartLine{line(1, 3, "0.10"), line(2, 7, "1.99")}
	a := ComputeTotals(lines, DefaultTaxRate, decimal.Zero)
	b := ComputeTotals(lines, DefaultTaxRate, decimal.Zero)

	assert.True(t, a.Total.Equal(b.Total))
	assert.True(t, a.Tax.Equal(b.Tax))
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestComputeTotals_NoFloatDrift(t *testing.T) {
	lines := []domain.CartLine{line(1, 3, "0.10")}
	totals := ComputeTotals(lines, decimal.Zero, decimal.Zero)
	assert.Equal(t, "0.3", totals.Subtotal.String())
}

func TestComputeTotals_Discount(t *testing.T) {
	lines := []domain.CartLine{line(1, 1, "10.00")}

	totals := ComputeTotals(lines, DefaultTaxRate, money.MustParse("1.20"))
	assert.Equal(t, "10.00", money.Format(totals.Total))

	totals = ComputeTotals(lines, DefaultTaxRate, money.MustParse("-5"))
	assert.True(t, totals.Discount.IsZero())
	assert.Equal(t, "11.20", money.Format(totals.Total))

	totals = ComputeTotals(lines, DefaultTaxRate, money.MustParse("50"))
	assert.True(t, totals.Total.IsZero())
}

func TestComputeTotals_FullPrecisionUntilPresentation(t *testing.T) {
	totals := ComputeTotals([]domain.CartLine{line(1, 1, "0.99")}, DefaultTaxRate, decimal.Zero)

	assert.Equal(t, "0.1188", totals.Tax.String())
	assert.Equal(t, "0.12", money.Format(totals.Tax))
	assert.Equal(t, "1.11", money.Format(totals.AmountDue()))
}

func TestComputeChange_Negative(t *testing.T) {
	change := ComputeChange(money.MustParse("22.40"), money.MustParse("20.00"))
	assert.Equal(t, "-2.40", money.Format(change))
}

func TestCalculator(t *testing.T) {
	lines := []domain.CartLine{line(1, 2, "5.00")}

	c := NewCalculator(DefaultTaxRate, nil)
	assert.Equal(t, "11.20", money.Format(c.Totals(lines).Total))

	c = NewCalculator(money.MustParse("0.05"), fixedDiscount("0.50"))
	totals := c.Totals(lines)
	assert.Equal(t, "0.50", money.Format(totals.Discount))
	assert.Equal(t, "10.00", money.Format(totals.Total))
}
