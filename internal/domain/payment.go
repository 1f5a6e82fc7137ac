package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentMethod is an open set; unknown methods are accepted and treated as non-cash.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "CASH"
	PaymentCard    PaymentMethod = "CARD"
	PaymentDigital PaymentMethod = "DIGITAL"
)

// ParsePaymentMethod normalizes user input; empty input yields CASH.
func ParsePaymentMethod(s string) PaymentMethod {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaymentCash
	}
	return PaymentMethod(s)
}

func (m PaymentMethod) IsCash() bool {
	return m == PaymentCash
}

func (m PaymentMethod) String() string {
	return string(m)
}

type PaymentState struct {
	Method         PaymentMethod   `json:"method"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
}

func DefaultPaymentState() PaymentState {
	return PaymentState{Method: PaymentCash, AmountTendered: decimal.Zero}
}
