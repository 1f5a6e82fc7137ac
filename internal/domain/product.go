package domain

import "github.com/shopspring/decimal"

// Product is a read-only catalog snapshot. AvailableStock is warehouse plus
// display quantity at fetch time.
type Product struct {
	ID             int64           `json:"product_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Barcode        string          `json:"barcode,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableStock int             `json:"available_stock"`
}
