package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/money"
)

const IdempotencyHeader = "Idempotency-Key"

type saleItem struct {
	ProductID   int64       `json:"product_id"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
	ProductName string      `json:"product_name"`
}

type salePayload struct {
	UserID         int64       `json:"user_id"`
	TerminalID     int64       `json:"terminal_id"`
	Payment        string      `json:"payment"`
	TotalAmount    json.Number `json:"total_amount"`
	Subtotal       json.Number `json:"subtotal"`
	TaxAmount      json.Number `json:"tax_amount"`
	DiscountAmount json.Number `json:"discount_amount"`
	PaymentAmount  json.Number `json:"payment_amount"`
	ChangeAmount   json.Number `json:"change_amount"`
	Items          []saleItem  `json:"items"`
	IdempotencyKey string      `json:"idempotency_key"`
}

func newSalePayload(req checkout.SaleRequest) salePayload {
	items := make([]saleItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, saleItem{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Price:       money.JSON(l.UnitPrice),
			ProductName: l.Name,
		})
	}
	return salePayload{
		UserID:         req.CashierID,
		TerminalID:     req.TerminalID,
		Payment:        req.Method.String(),
		TotalAmount:    money.JSON(req.Totals.Total),
		Subtotal:       money.JSON(req.Totals.Subtotal),
		TaxAmount:      money.JSON(req.Totals.Tax),
		DiscountAmount: money.JSON(req.Totals.Discount),
		PaymentAmount:  money.JSON(req.AmountTendered),
		ChangeAmount:   money.JSON(req.ChangeDue),
		Items:          items,
		IdempotencyKey: req.IdempotencyKey,
	}
}

// SubmitSale posts one sale. The idempotency key travels both in the payload
// and as the Idempotency-Key header.
func (c *Client) SubmitSale(ctx context.Context, req checkout.SaleRequest) (checkout.SaleReceipt, error) {
	header := http.Header{}
	if req.IdempotencyKey != "" {
		header.Set(IdempotencyHeader, req.IdempotencyKey)
	}
	raw, err := c.do(ctx, http.MethodPost, c.cfg.SaleSubmitPath, nil, newSalePayload(req), header)
	if err != nil {
		return checkout.SaleReceipt{}, err
	}
	body, err := envelope(raw)
	if err != nil {
		return checkout.SaleReceipt{}, err
	}

	id, err := saleID(body)
	if err != nil {
		return checkout.SaleReceipt{}, err
	}
	return checkout.SaleReceipt{SaleID: id}, nil
}

// saleID reads data.sale_id, falling back to a top-level sale_id. The id may
// be a number or a string.
func saleID(body map[string]json.RawMessage) (string, error) {
	src := body
	if data, ok := lookup(body, "data"); ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			src = inner
		}
	}
	v, ok := lookup(src, "sale_id")
	if !ok {
		return "", nil
	}
	var id any
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&id); err != nil {
		return "", fmt.Errorf("%w: sale_id: %v", ErrMalformedResponse, err)
	}
	switch id := id.(type) {
	case string:
		return strings.TrimSpace(id), nil
	case json.Number:
		return id.String(), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("%w: sale_id has unexpected type", ErrMalformedResponse)
}

// TerminalStatus reports whether the terminal is still active. The backend
// answers either {"active": bool} or {"status": "active"|...}, optionally
// nested under "data".
func (c *Client) TerminalStatus(ctx context.Context, terminalID int64) (bool, error) {
	query := url.Values{"terminal_id": {strconv.FormatInt(terminalID, 10)}}
	raw, err := c.do(ctx, http.MethodGet, c.cfg.TerminalStatusPath, query, nil, nil)
	if err != nil {
		return false, err
	}
	body, err := envelope(raw)
	if err != nil {
		return false, err
	}
	if data, ok := lookup(body, "data"); ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(data, &inner) == nil {
			body = inner
		}
	}

	if v, ok := lookup(body, "active"); ok {
		var active bool
		if err := json.Unmarshal(v, &active); err != nil {
			return false, fmt.Errorf("%w: active is not a boolean", ErrMalformedResponse)
		}
		return active, nil
	}
	if v, ok := lookup(body, "status"); ok {
		var status string
		if err := json.Unmarshal(v, &status); err != nil {
			return false, fmt.Errorf("%w: status is not a string", ErrMalformedResponse)
		}
		return strings.EqualFold(status, "active"), nil
	}
	return false, fmt.Errorf("%w: missing terminal status", ErrMalformedResponse)
}
