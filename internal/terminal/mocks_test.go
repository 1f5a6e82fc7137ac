package terminal

import (
	"context"
	"sync"

	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/domain"
)

type mockSource struct {
	products []domain.Product
}

func (m *mockSource) ListProducts(context.Context) ([]domain.Product, error) {
	return m.products, nil
}

type mockSubmitter struct {
	mu    sync.Mutex
	calls int
}

func (m *mockSubmitter) SubmitSale(context.Context, checkout.SaleRequest) (checkout.SaleReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return checkout.SaleReceipt{SaleID: "S-1"}, nil
}

type mockStatus struct {
	mu     sync.Mutex
	active map[int64]bool
	err    error
	calls  []int64
}

func (m *mockStatus) TerminalStatus(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, id)
	if m.err != nil {
		return false, m.err
	}
	active, ok := m.active[id]
	return !ok || active, nil
}

func (m *mockStatus) set(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[id] = active
}

func (m *mockStatus) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
