package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	assert.True(t, CanTransitionTo(CheckoutStatusIdle, CheckoutStatusValidating))
	assert.True(t, CanTransitionTo(CheckoutStatusValidating, CheckoutStatusIdle))
	assert.True(t, CanTransitionTo(CheckoutStatusValidating, CheckoutStatusSubmitting))
	assert.True(t, CanTransitionTo(CheckoutStatusSubmitting, CheckoutStatusSucceeded))
	assert.True(t, CanTransitionTo(CheckoutStatusSubmitting, CheckoutStatusFailed))
	assert.True(t, CanTransitionTo(CheckoutStatusFailed, CheckoutStatusIdle))

	assert.False(t, CanTransitionTo(CheckoutStatusIdle, CheckoutStatusSubmitting))
	assert.False(t, CanTransitionTo(CheckoutStatusSubmitting, CheckoutStatusIdle))
	assert.False(t, CanTransitionTo(CheckoutStatusSucceeded, CheckoutStatusFailed))
}

func TestCheckoutStatus_Flags(t *testing.T) {
	assert.True(t, CheckoutStatusSucceeded.IsTerminal())
	assert.True(t, CheckoutStatusFailed.IsTerminal())
	assert.False(t, CheckoutStatusSubmitting.IsTerminal())
	assert.True(t, CheckoutStatusSubmitting.InProgress())
	assert.False(t, CheckoutStatusIdle.InProgress())
}

func TestParsePaymentMethod(t *testing.T) {
	assert.Equal(t, PaymentCash, ParsePaymentMethod(""))
	assert.Equal(t, PaymentCard, ParsePaymentMethod(" card "))
	assert.Equal(t, PaymentMethod("GCASH"), ParsePaymentMethod("gcash"))
	assert.True(t, ParsePaymentMethod("cash").IsCash())
	assert.False(t, PaymentDigital.IsCash())
}

func TestTotals_AmountDue(t *testing.T) {
	tt := Totals{Total: decimal.RequireFromString("22.4015")}
	assert.Equal(t, "22.4", tt.AmountDue().String())
}

func TestCartLine_LineTotal(t *testing.T) {
	l := CartLine{Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")}
	assert.True(t, decimal.RequireFromString("0.30").Equal(l.LineTotal()))
}
