package http

import (
	"context"
	"sync"

	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/domain"
)

type mockSource struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
}

func (m *mockSource) ListProducts(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products, m.err
}

type mockSubmitter struct {
	mu       sync.Mutex
	requests []checkout.SaleRequest
	err      error
}

func (m *mockSubmitter) SubmitSale(_ context.Context, req checkout.SaleRequest) (checkout.SaleReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return checkout.SaleReceipt{}, m.err
	}
	return checkout.SaleReceipt{SaleID: "S-100"}, nil
}

// rejection mimics a backend refusal.
type rejection struct{ msg string }

func (e *rejection) Error() string          { return e.msg }
func (e *rejection) BackendMessage() string { return e.msg }
func (e *rejection) Rejected() bool         { return true }
