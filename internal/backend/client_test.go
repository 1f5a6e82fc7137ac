package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/fjod/grocery-pos/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:            srv.URL,
		ProductListPath:    "/api/product_list",
		SaleSubmitPath:     "/api/pos_sale",
		TerminalStatusPath: "/api/terminal_status",
		SessionCookie:      "session=abc123",
		RequestTimeout:     2 * time.Second,
	}, circuitbreaker.Config{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}, circuitbreaker.Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewClient(Config{BaseURL: "http://localhost", SessionCookie: "novalue"}, circuitbreaker.Config{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestListProducts_NormalizesEntries(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/product_list", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success": true, "products": [
			{"Product_ID": 1, "Name": "Milk", "Description": "1L", "Price": "10.00", "Quantity": 3, "Display_Stocks": 2, "Barcode": "4800016"},
			{"product_id": "2", "name": "Bread", "price": 15.5, "quantity": -4, "display_stocks": 1},
			{"name": "no id", "price": 1},
			{"product_id": 3, "name": "Refund", "price": -1}
		]}`)
	})

	products, err := c.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "Milk", products[0].Name)
	assert.Equal(t, "1L", products[0].Description)
	assert.Equal(t, "4800016", products[0].Barcode)
	assert.Equal(t, "10.00", money.Format(products[0].UnitPrice))
	assert.Equal(t, 5, products[0].AvailableStock)

	assert.Equal(t, int64(2), products[1].ID)
	assert.Equal(t, "15.50", money.Format(products[1].UnitPrice))
	assert.Equal(t, 0, products[1].AvailableStock)
}

func TestListProducts_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing products", `{"success": true}`},
		{"products not a list", `{"success": true, "products": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			_, err := c.ListProducts(context.Background())
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestListProducts_SuccessFalse(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": false, "error": "not logged in"}`)
	})

	_, err := c.ListProducts(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "not logged in", apiErr.Message)
}

func TestSendsSessionCookie(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc123", cookie.Value)
		}
		writeJSON(w, http.StatusOK, `{"success": true, "products": []}`)
	})

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func saleRequest() checkout.SaleRequest {
	return checkout.SaleRequest{
		IdempotencyKey: "key-1",
		TerminalID:     1,
		CashierID:      42,
		Lines: []domain.CartLine{
			{ProductID: 1, Name: "Milk", Quantity: 2, UnitPrice: money.MustParse("10.00"), AvailableStock: 5},
		},
		Totals: domain.Totals{
			Subtotal: money.MustParse("20.00"),
			Tax:      money.MustParse("2.40"),
			Discount: money.MustParse("0"),
			Total:    money.MustParse("22.40"),
		},
		Method:         domain.PaymentCash,
		AmountTendered: money.MustParse("25"),
		ChangeDue:      money.MustParse("2.60"),
	}
}

func TestSubmitSale_Payload(t *testing.T) {
	var payload map[string]any
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/pos_sale", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		writeJSON(w, http.StatusOK, `{"success": true, "data": {"sale_id": 981}}`)
	})

	receipt, err := c.SubmitSale(context.Background(), saleRequest())

	require.NoError(t, err)
	assert.Equal(t, "981", receipt.SaleID)
	assert.Equal(t, float64(42), payload["user_id"])
	assert.Equal(t, float64(1), payload["terminal_id"])
	assert.Equal(t, "CASH", payload["payment"])
	assert.Equal(t, 22.4, payload["total_amount"])
	assert.Equal(t, float64(20), payload["subtotal"])
	assert.Equal(t, 2.4, payload["tax_amount"])
	assert.Equal(t, float64(25), payload["payment_amount"])
	assert.Equal(t, "key-1", payload["idempotency_key"])

	items := payload["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(1), item["product_id"])
	assert.Equal(t, float64(2), item["quantity"])
	assert.Equal(t, float64(10), item["price"])
	assert.Equal(t, "Milk", item["product_name"])
}

func TestSubmitSale_StringSaleID(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true, "data": {"sale_id": "S-77"}}`)
	})

	receipt, err := c.SubmitSale(context.Background(), saleRequest())

	require.NoError(t, err)
	assert.Equal(t, "S-77", receipt.SaleID)
}

func TestSubmitSale_LargeNumericSaleID(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true, "data": {"sale_id": 9007199254740993}}`)
	})

	receipt, err := c.SubmitSale(context.Background(), saleRequest())

	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", receipt.SaleID)
}

func TestSubmitSale_Rejected(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": false, "error": "stock changed"}`)
	})

	_, err := c.SubmitSale(context.Background(), saleRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "stock changed", apiErr.BackendMessage())
	assert.True(t, apiErr.Rejected())
}

func TestSubmitSale_ServerErrorMessage(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error": "database unavailable"}`)
	})

	_, err := c.SubmitSale(context.Background(), saleRequest())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "database unavailable", apiErr.Message)
	assert.False(t, apiErr.Rejected())
}

func TestBreaker_TripsOnServerErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	var fail atomic.Bool
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if fail.Load() {
			writeJSON(w, http.StatusBadGateway, `{}`)
			return
		}
		writeJSON(w, http.StatusBadRequest, `{"error": "bad request"}`)
	})
	ctx := context.Background()

	// refusals keep the breaker closed
	for i := 0; i < 3; i++ {
		_, err := c.SubmitSale(ctx, saleRequest())
		require.Error(t, err)
	}
	assert.Equal(t, "closed", c.BreakerState())

	fail.Store(true)
	for i := 0; i < 2; i++ {
		_, err := c.SubmitSale(ctx, saleRequest())
		require.Error(t, err)
	}
	assert.Equal(t, "open", c.BreakerState())

	before := calls.Load()
	_, err := c.SubmitSale(ctx, saleRequest())
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen))
	assert.Equal(t, before, calls.Load())
}

func TestTerminalStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		active bool
	}{
		{"active flag", `{"success": true, "active": true}`, true},
		{"inactive flag", `{"success": true, "active": false}`, false},
		{"status string", `{"status": "ACTIVE"}`, true},
		{"nested data", `{"success": true, "data": {"status": "deactivated"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/terminal_status", r.URL.Path)
				assert.Equal(t, "3", r.URL.Query().Get("terminal_id"))
				writeJSON(w, http.StatusOK, tt.body)
			})
			active, err := c.TerminalStatus(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, tt.active, active)
		})
	}
}

func TestTerminalStatus_Malformed(t *testing.T) {
	c := setupClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true}`)
	})

	_, err := c.TerminalStatus(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
