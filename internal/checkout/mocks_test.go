package checkout

import (
	"context"
	"sync"

	"github.com/fjod/grocery-pos/internal/domain"
)

type mockCatalog struct {
	products map[int64]domain.Product
}

func (m *mockCatalog) FindByID(id int64) (domain.Product, bool) {
	p, ok := m.products[id]
	return p, ok
}

type mockSubmitter struct {
	mu       sync.Mutex
	requests []SaleRequest
	receipt  SaleReceipt
	err      error
	// started is signalled when a call begins; the call then waits on block.
	started chan struct{}
	block   chan struct{}
	// waitCtx makes the call hang until its context is done.
	waitCtx bool
}

func (m *mockSubmitter) SubmitSale(ctx context.Context, req SaleRequest) (SaleReceipt, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	receipt, err := m.receipt, m.err
	m.mu.Unlock()

	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	if m.waitCtx {
		<-ctx.Done()
		return SaleReceipt{}, ctx.Err()
	}
	return receipt, err
}

func (m *mockSubmitter) calls() []SaleRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SaleRequest(nil), m.requests...)
}

func (m *mockSubmitter) set(receipt SaleReceipt, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipt, m.err = receipt, err
}

type mockRefresher struct {
	mu    sync.Mutex
	count int
	err   error
	// block makes Refresh hang until it is closed or ctx is done.
	block chan struct{}
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.count++
	err := m.err
	m.mu.Unlock()

	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *mockRefresher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

type mockPublisher struct {
	mu    sync.Mutex
	sales []domain.Sale
	err   error
}

func (m *mockPublisher) PublishSaleCompleted(_ context.Context, sale domain.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, sale)
	return m.err
}

func (m *mockPublisher) published() []domain.Sale {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Sale(nil), m.sales...)
}

// backendError mimics the error the backend client returns for a sale the
// server refused.
type backendError struct {
	msg      string
	rejected bool
}

func (e *backendError) Error() string          { return "backend: " + e.msg }
func (e *backendError) BackendMessage() string { return e.msg }
func (e *backendError) Rejected() bool         { return e.rejected }
