package checkout

import (
	"context"

	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/shopspring/decimal"
)

// SaleRequest is everything the backend needs to record a sale.
type SaleRequest struct {
	IdempotencyKey string
	TerminalID     int64
	CashierID      int64
	Lines          []domain.CartLine
	Totals         domain.Totals
	Method         domain.PaymentMethod
	AmountTendered decimal.Decimal
	ChangeDue      decimal.Decimal
}

type SaleReceipt struct {
	SaleID string
}

// SaleSubmitter is the sale-submission collaborator (the backend).
type SaleSubmitter interface {
	SubmitSale(ctx context.Context, req SaleRequest) (SaleReceipt, error)
}

// Refresher reloads the product catalog after a sale.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// EventPublisher announces completed sales to downstream consumers.
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, sale domain.Sale) error
}

// SubmissionGuard serializes submissions per terminal. Acquire returns
// ErrCheckoutInProgress when another submission for the terminal holds it.
type SubmissionGuard interface {
	Acquire(ctx context.Context, terminalID int64, key string) (release func(), err error)
}

type noopPublisher struct{}

func (noopPublisher) PublishSaleCompleted(context.Context, domain.Sale) error { return nil }

type noopRefresher struct{}

func (noopRefresher) Refresh(context.Context) error { return nil }
