package cart

import (
	"math"
	"sync"

	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductLookup resolves products against the current catalog.
type ProductLookup interface {
	FindByID(id int64) (domain.Product, bool)
}

// Snapshot is a copy of the cart taken at one instant.
type Snapshot struct {
	Lines   []domain.CartLine
	Payment domain.PaymentState
	// Version changes on every successful mutation.
	Version uint64
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Store is the in-memory transaction state of one terminal. Every operation
// either applies fully or returns an error and leaves the cart untouched.
type Store struct {
	catalog ProductLookup

	mu      sync.RWMutex
	lines   map[int64]*domain.CartLine
	order   []int64 // insertion order
	payment domain.PaymentState
	frozen  bool
	version uint64
}

func NewStore(catalog ProductLookup) *Store {
	return &Store{
		catalog: catalog,
		lines:   map[int64]*domain.CartLine{},
		payment: domain.DefaultPaymentState(),
	}
}

// AddItem adds quantity units of a catalog product. Price, name and stock are
// captured from the catalog the first time the product enters the cart.
func (s *Store) AddItem(productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	product, ok := s.catalog.FindByID(productID)
	if !ok {
		return ErrProductNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrCartLocked
	}

	if line, exists := s.lines[productID]; exists {
		if quantity > line.AvailableStock-line.Quantity {
			requested := line.Quantity + quantity
			if requested < line.Quantity {
				requested = math.MaxInt
			}
			return stockError(line.ProductID, line.Name, requested, line.AvailableStock)
		}
		line.Quantity += quantity
		s.version++
		return nil
	}

	if quantity > product.AvailableStock {
		return stockError(product.ID, product.Name, quantity, product.AvailableStock)
	}
	s.insert(product, quantity)
	return nil
}

// SetQuantity sets a line to an absolute quantity. Zero or less removes the line.
// A product not yet in the cart is added.
func (s *Store) SetQuantity(productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrCartLocked
	}

	if quantity <= 0 {
		s.remove(productID)
		return nil
	}

	if line, exists := s.lines[productID]; exists {
		if quantity > line.AvailableStock {
			return stockError(line.ProductID, line.Name, quantity, line.AvailableStock)
		}
		if line.Quantity != quantity {
			line.Quantity = quantity
			s.version++
		}
		return nil
	}

	product, ok := s.catalog.FindByID(productID)
	if !ok {
		return ErrProductNotFound
	}
	if quantity > product.AvailableStock {
		return stockError(product.ID, product.Name, quantity, product.AvailableStock)
	}
	s.insert(product, quantity)
	return nil
}

// VoidItem removes a line. Voiding a product that is not in the cart is a no-op.
func (s *Store) VoidItem(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrCartLocked
	}
	s.remove(productID)
	return nil
}

// VoidLast removes the most recently added line and reports which product it was.
func (s *Store) VoidLast() (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return 0, false, ErrCartLocked
	}
	if len(s.order) == 0 {
		return 0, false, nil
	}
	id := s.order[len(s.order)-1]
	s.remove(id)
	return id, true, nil
}

// Clear removes all lines and resets the pending payment.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrCartLocked
	}
	s.reset()
	return nil
}

// SetPayment records the pending payment method and amount tendered.
func (s *Store) SetPayment(method domain.PaymentMethod, tendered decimal.Decimal) error {
	if tendered.IsNegative() {
		return ErrInvalidAmount
	}
	if method == "" {
		method = domain.PaymentCash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return ErrCartLocked
	}
	if s.payment.Method != method || !s.payment.AmountTendered.Equal(tendered) {
		s.payment = domain.PaymentState{Method: method, AmountTendered: tendered}
		s.version++
	}
	return nil
}

// Snapshot copies the current cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Lines() []domain.CartLine {
	return s.Snapshot().Lines
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Quantity(productID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if line, ok := s.lines[productID]; ok {
		return line.Quantity
	}
	return 0
}

// Freeze locks the cart against mutation and returns its content. Only one
// freeze can be held at a time.
func (s *Store) Freeze() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return Snapshot{}, ErrCartLocked
	}
	s.frozen = true
	return s.snapshot(), nil
}

// Unfreeze releases a freeze and keeps the content.
func (s *Store) Unfreeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = false
}

// ClearFrozen empties the cart and releases the freeze.
func (s *Store) ClearFrozen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.frozen = false
}

func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

func (s *Store) insert(p domain.Product, quantity int) {
	s.lines[p.ID] = &domain.CartLine{
		ProductID:      p.ID,
		Name:           p.Name,
		Quantity:       quantity,
		UnitPrice:      p.UnitPrice,
		AvailableStock: p.AvailableStock,
	}
	s.order = append(s.order, p.ID)
	s.version++
}

func (s *Store) remove(productID int64) {
	if _, ok := s.lines[productID]; !ok {
		return
	}
	delete(s.lines, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
}

func (s *Store) reset() {
	if len(s.order) > 0 || !s.payment.Method.IsCash() || !s.payment.AmountTendered.IsZero() {
		s.version++
	}
	s.lines = map[int64]*domain.CartLine{}
	s.order = nil
	s.payment = domain.DefaultPaymentState()
}

func (s *Store) snapshot() Snapshot {
	lines := make([]domain.CartLine, 0, len(s.order))
	for _, id := range s.order {
		lines = append(lines, *s.lines[id])
	}
	return Snapshot{Lines: lines, Payment: s.payment, Version: s.version}
}

func stockError(id int64, name string, requested, available int) error {
	return &InsufficientStockError{ProductID: id, Name: name, Requested: requested, Available: available}
}
