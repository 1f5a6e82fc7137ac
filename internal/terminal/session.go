// Package terminal owns the per-terminal controllers: a Session wires a cart,
// a checkout flow and the shared catalog for one terminal.
package terminal

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fjod/grocery-pos/internal/cart"
	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog is the shared product catalog as seen by a session.
type Catalog interface {
	cart.ProductLookup
	FindByCode(code string) (domain.Product, bool)
	Search(term string) []domain.Product
	Refresh(ctx context.Context) error
}

type SessionConfig struct {
	Catalog           Catalog
	Submitter         checkout.SaleSubmitter
	Guard             checkout.SubmissionGuard
	Events            checkout.EventPublisher
	Calculator        pricing.Calculator
	SubmitTimeout     time.Duration
	SideEffectTimeout time.Duration
	Log               *zap.Logger
}

type Session struct {
	id          int64
	catalog     Catalog
	cart        *cart.Store
	flow        *checkout.Flow
	calc        pricing.Calculator
	deactivated atomic.Bool
}

func NewSession(id int64, cfg SessionConfig) *Session {
	store := cart.NewStore(cfg.Catalog)
	flow := checkout.NewFlow(checkout.Config{
		TerminalID:        id,
		SubmitTimeout:     cfg.SubmitTimeout,
		SideEffectTimeout: cfg.SideEffectTimeout,
		Calculator:        cfg.Calculator,
	}, checkout.Deps{
		Cart:      store,
		Submitter: cfg.Submitter,
		Catalog:   cfg.Catalog,
		Guard:     cfg.Guard,
		Events:    cfg.Events,
	}, cfg.Log)

	return &Session{
		id:      id,
		catalog: cfg.Catalog,
		cart:    store,
		flow:    flow,
		calc:    cfg.Calculator,
	}
}

func (s *Session) ID() int64 {
	return s.id
}

func (s *Session) AddItem(productID int64, quantity int) error {
	if err := s.active(); err != nil {
		return err
	}
	return s.cart.AddItem(productID, quantity)
}

// Scan adds one unit of the product matching a scanned barcode or product id.
func (s *Session) Scan(code string) (domain.Product, error) {
	if err := s.active(); err != nil {
		return domain.Product{}, err
	}
	product, ok := s.catalog.FindByCode(code)
	if !ok {
		return domain.Product{}, cart.ErrProductNotFound
	}
	if err := s.cart.AddItem(product.ID, 1); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Session) SetQuantity(productID int64, quantity int) error {
	if err := s.active(); err != nil {
		return err
	}
	return s.cart.SetQuantity(productID, quantity)
}

func (s *Session) VoidItem(productID int64) error {
	if err := s.active(); err != nil {
		return err
	}
	return s.cart.VoidItem(productID)
}

func (s *Session) VoidLast() (int64, bool, error) {
	if err := s.active(); err != nil {
		return 0, false, err
	}
	return s.cart.VoidLast()
}

func (s *Session) Clear() error {
	if err := s.active(); err != nil {
		return err
	}
	return s.cart.Clear()
}

func (s *Session) SetPayment(method domain.PaymentMethod, tendered decimal.Decimal) error {
	if err := s.active(); err != nil {
		return err
	}
	return s.cart.SetPayment(method, tendered)
}

func (s *Session) Checkout(ctx context.Context, cashierID int64) (*domain.Sale, error) {
	if err := s.active(); err != nil {
		return nil, err
	}
	return s.flow.Process(ctx, checkout.Request{CashierID: cashierID})
}

func (s *Session) Search(term string) []domain.Product {
	return s.catalog.Search(term)
}

func (s *Session) CheckoutState() checkout.State {
	return s.flow.State()
}

// Deactivate forces a logout. The cart is left as it is.
func (s *Session) Deactivate() bool {
	return s.deactivated.CompareAndSwap(false, true)
}

func (s *Session) Reactivate() bool {
	return s.deactivated.CompareAndSwap(true, false)
}

func (s *Session) Deactivated() bool {
	return s.deactivated.Load()
}

func (s *Session) active() error {
	if s.deactivated.Load() {
		return ErrTerminalDeactivated
	}
	return nil
}
