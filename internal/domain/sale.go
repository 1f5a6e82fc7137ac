package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Sale is the receipt projection of a checkout acknowledged by the backend.
// The backend owns the sale; the terminal only renders it.
type Sale struct {
	SaleID         string          `json:"sale_id"`
	Lines          []SaleLine      `json:"lines"`
	Totals         Totals          `json:"totals"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due"`
	TerminalID     int64           `json:"terminal_id"`
	CashierID      int64           `json:"cashier_id"`
	Timestamp      time.Time       `json:"timestamp"`
}
