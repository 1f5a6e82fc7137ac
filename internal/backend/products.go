package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/money"
	"go.uber.org/zap"
)

// ListProducts fetches the full product list. Entry keys are matched
// case-insensitively (Product_ID, product_id, ...). Entries without a usable
// id or with a negative price are skipped.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	raw, err := c.do(ctx, http.MethodGet, c.cfg.ProductListPath, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	body, err := envelope(raw)
	if err != nil {
		return nil, err
	}
	list, ok := lookup(body, "products")
	if !ok {
		list, ok = lookup(body, "data")
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing products", ErrMalformedResponse)
	}

	var entries []map[string]any
	dec := json.NewDecoder(bytes.NewReader(list))
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: products is not a list of objects", ErrMalformedResponse)
	}

	products := make([]domain.Product, 0, len(entries))
	for i, entry := range entries {
		p, err := parseProduct(entry)
		if err != nil {
			c.log.Warn("skipping product entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func parseProduct(entry map[string]any) (domain.Product, error) {
	fields := make(map[string]any, len(entry))
	for k, v := range entry {
		fields[strings.ToLower(k)] = v
	}

	id, ok := intField(fields, "product_id", "id")
	if !ok || id <= 0 {
		return domain.Product{}, fmt.Errorf("missing product id")
	}

	price, err := money.Parse(first(fields, "price", "unit_price", "selling_price"))
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, err)
	}
	if price.IsNegative() {
		return domain.Product{}, fmt.Errorf("product %d: negative price", id)
	}

	quantity, _ := intField(fields, "quantity", "stock")
	display, _ := intField(fields, "display_stocks", "display_stock")
	stock := quantity + display
	if stock < 0 {
		stock = 0
	}

	return domain.Product{
		ID:             id,
		Name:           stringField(fields, "name", "product_name"),
		Description:    stringField(fields, "description"),
		Barcode:        stringField(fields, "barcode", "sku"),
		UnitPrice:      price,
		AvailableStock: int(stock),
	}, nil
}

func first(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(fields map[string]any, keys ...string) string {
	switch v := first(fields, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

func intField(fields map[string]any, keys ...string) (int64, bool) {
	switch v := first(fields, keys...).(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
