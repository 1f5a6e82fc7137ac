package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/grocery-pos/internal/domain"
)

// mockSource implements ProductSource for testing
type mockSource struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	calls    atomic.Int32
	block    chan struct{} // when set, ListProducts waits on it
}

func (m *mockSource) ListProducts(context.Context) ([]domain.Product, error) {
	m.calls.Add(1)
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockSource) set(products []domain.Product, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.err = err
}
