package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/grocery-pos/internal/domain"
)

// ProductCatalog is the read side of the catalog cache plus its refresh.
type ProductCatalog interface {
	Products() []domain.Product
	Search(term string) []domain.Product
	Refresh(ctx context.Context) error
	LoadedAt() time.Time
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewProductHandler(catalog ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

// GET /api/v1/products?q=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var products []domain.Product
	if q := r.URL.Query().Get("q"); q != "" {
		products = h.catalog.Search(q)
	} else {
		products = h.catalog.Products()
	}
	respondJSON(w, http.StatusOK, toProductList(products, h.catalog.LoadedAt()))
}

// POST /api/v1/products/refresh
func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.Refresh(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductList(h.catalog.Products(), h.catalog.LoadedAt()))
}
