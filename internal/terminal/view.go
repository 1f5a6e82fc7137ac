package terminal

import (
	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/pricing"
	"github.com/shopspring/decimal"
)

// View is everything needed to render a terminal screen at one instant.
type View struct {
	TerminalID  int64
	Lines       []domain.CartLine
	Totals      domain.Totals
	AmountDue   decimal.Decimal
	Payment     domain.PaymentState
	ChangeDue   decimal.Decimal
	CanCheckout bool
	Locked      bool
	Deactivated bool
	Checkout    checkout.State
}

func (s *Session) View() View {
	snap := s.cart.Snapshot()
	totals := s.calc.Totals(snap.Lines)
	due := totals.AmountDue()

	// change is only meaningful for cash; a negative value is the shortfall
	change := decimal.Zero
	if snap.Payment.Method.IsCash() {
		change = pricing.ComputeChange(due, snap.Payment.AmountTendered)
	}

	state := s.flow.State()
	deactivated := s.Deactivated()
	canCheckout := !snap.IsEmpty() && !state.Status.InProgress() && !deactivated &&
		(!snap.Payment.Method.IsCash() || !change.IsNegative())

	return View{
		TerminalID:  s.id,
		Lines:       snap.Lines,
		Totals:      totals,
		AmountDue:   due,
		Payment:     snap.Payment,
		ChangeDue:   change,
		CanCheckout: canCheckout,
		Locked:      s.cart.Frozen(),
		Deactivated: deactivated,
		Checkout:    state,
	}
}
