package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fjod/grocery-pos/internal/cart"
	"github.com/fjod/grocery-pos/internal/catalog"
	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/fjod/grocery-pos/internal/terminal"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps engine errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var (
		stockErr   *cart.InsufficientStockError
		payErr     *checkout.InsufficientPaymentError
		submitErr  *checkout.SaleSubmissionError
		catalogErr *catalog.FetchError
	)

	switch {
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   err.Error(),
			Code:    "insufficient_stock",
			Details: fmt.Sprintf("requested %d, available %d", stockErr.Requested, stockErr.Available),
		})
	case errors.As(err, &payErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   err.Error(),
			Code:    "insufficient_payment",
			Details: "shortfall " + money.Format(payErr.Shortfall),
		})
	case errors.As(err, &submitErr):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:     submitErr.Message,
			Code:      "sale_submission_failed",
			Retryable: submitErr.Retryable,
		})
	case errors.As(err, &catalogErr):
		respondError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.Is(err, cart.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, cart.ErrCartLocked), errors.Is(err, checkout.ErrCheckoutInProgress):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, terminal.ErrTerminalDeactivated):
		respondError(w, http.StatusLocked, "terminal_deactivated", err.Error())
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
