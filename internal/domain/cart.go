package domain

import (
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/shopspring/decimal"
)

// CartLine is one product in the cart. UnitPrice, Name and AvailableStock are
// captured when the product is first added and do not follow later catalog
// refreshes.
type CartLine struct {
	ProductID      int64           `json:"product_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableStock int             `json:"available_stock"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is derived from cart state and never stored on its own.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// AmountDue is the total rounded to cents, the amount the customer is asked to pay.
func (t Totals) AmountDue() decimal.Decimal {
	return money.Cents(t.Total)
}
