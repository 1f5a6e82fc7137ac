package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct{}

func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartDTO(getSession(r.Context()).View()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	s := getSession(r.Context())
	if err := s.AddItem(req.ProductID, quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartDTO(s.View()))
}

// POST /api/v1/cart/scan
func (h *CartHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	s := getSession(r.Context())
	if _, err := s.Scan(req.Code); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartDTO(s.View()))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s := getSession(r.Context())
	if err := s.SetQuantity(productID, req.Quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(s.View()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	s := getSession(r.Context())
	if err := s.VoidItem(productID); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(s.View()))
}

// POST /api/v1/cart/void-last
func (h *CartHandler) VoidLast(w http.ResponseWriter, r *http.Request) {
	s := getSession(r.Context())
	if _, _, err := s.VoidLast(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(s.View()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := getSession(r.Context())
	if err := s.Clear(); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(s.View()))
}

// PUT /api/v1/cart/payment
func (h *CartHandler) SetPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequestDTO
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tendered := decimal.Zero
	if req.AmountTendered != nil {
		amount, err := money.Parse(req.AmountTendered)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount", "amount_tendered must be a number")
			return
		}
		tendered = amount
	}

	s := getSession(r.Context())
	if err := s.SetPayment(domain.ParsePaymentMethod(req.Method), tendered); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartDTO(s.View()))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}
