package http

import (
	"net/http"
)

type CheckoutHandler struct {
	requireCashier bool
}

// NewCheckoutHandler builds the checkout endpoints. With requireCashier set a
// checkout without X-User-ID is rejected.
func NewCheckoutHandler(requireCashier bool) *CheckoutHandler {
	return &CheckoutHandler{requireCashier: requireCashier}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	cashierID := getCashierID(r.Context())
	if h.requireCashier && cashierID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	s := getSession(r.Context())
	sale, err := s.Checkout(r.Context(), cashierID)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSaleDTO(*sale))
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCheckoutStateDTO(getSession(r.Context()).CheckoutState()))
}
