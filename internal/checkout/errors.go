package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/grocery-pos/internal/money"
	"github.com/shopspring/decimal"
)

const (
	GenericNetworkMessage = "network error while submitting the sale, please try again"
	TimeoutMessage        = "the sale submission timed out, please try again"
	MissingSaleIDMessage  = "the server accepted the sale but returned no sale id"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress  = errors.New("a checkout is already in progress")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)

// InsufficientPaymentError blocks a cash checkout whose tendered amount does not
// cover the amount due. No submission is attempted.
type InsufficientPaymentError struct {
	Shortfall decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("insufficient payment: %s short", money.Format(e.Shortfall))
}

// SaleSubmissionError is a failed submission. The cart is preserved so the
// cashier can retry. Retryable is set when the request may not have reached the
// backend (network error, timeout, open circuit).
type SaleSubmissionError struct {
	Message   string
	Retryable bool
	Err       error
}

func (e *SaleSubmissionError) Error() string {
	return fmt.Sprintf("sale submission failed: %s", e.Message)
}

func (e *SaleSubmissionError) Unwrap() error {
	return e.Err
}

// BackendMessenger is implemented by collaborator errors that carry a message
// written by the backend for the cashier.
type BackendMessenger interface {
	BackendMessage() string
}

// Rejection marks errors where the backend received and refused the sale.
type Rejection interface {
	Rejected() bool
}
