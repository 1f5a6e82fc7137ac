package cart

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found in catalog")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidAmount   = errors.New("amount tendered must not be negative")
	ErrCartLocked      = errors.New("cart is locked by a checkout in progress")
)

// InsufficientStockError is returned when a mutation would push a line above the
// stock captured for it. The cart is left unchanged.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("product %d", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, only %d available", name, e.Requested, e.Available)
}
