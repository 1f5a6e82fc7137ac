package http

import (
	"encoding/json"
	"time"

	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/fjod/grocery-pos/internal/terminal"
)

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type ScanRequestDTO struct {
	Code string `json:"code"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type PaymentRequestDTO struct {
	Method         string `json:"method"`
	AmountTendered any    `json:"amount_tendered"`
}

type ProductDTO struct {
	ProductID      int64       `json:"product_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Barcode        string      `json:"barcode,omitempty"`
	UnitPrice      json.Number `json:"unit_price"`
	AvailableStock int         `json:"available_stock"`
}

type ProductListDTO struct {
	Products []ProductDTO `json:"products"`
	Count    int          `json:"count"`
	LoadedAt *time.Time   `json:"loaded_at,omitempty"`
}

type LineDTO struct {
	ProductID      int64       `json:"product_id"`
	Name           string      `json:"name"`
	Quantity       int         `json:"quantity"`
	UnitPrice      json.Number `json:"unit_price"`
	LineTotal      json.Number `json:"line_total"`
	AvailableStock int         `json:"available_stock"`
}

type PaymentDTO struct {
	Method         string      `json:"method"`
	AmountTendered json.Number `json:"amount_tendered"`
}

type CheckoutStateDTO struct {
	Status    string   `json:"status"`
	Error     string   `json:"error,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
	LastSale  *SaleDTO `json:"last_sale,omitempty"`
}

type CartDTO struct {
	TerminalID  int64            `json:"terminal_id"`
	Lines       []LineDTO        `json:"lines"`
	ItemCount   int              `json:"item_count"`
	Subtotal    json.Number      `json:"subtotal"`
	Tax         json.Number      `json:"tax"`
	Discount    json.Number      `json:"discount"`
	Total       json.Number      `json:"total"`
	Payment     PaymentDTO       `json:"payment"`
	ChangeDue   json.Number      `json:"change_due"`
	CanCheckout bool             `json:"can_checkout"`
	Locked      bool             `json:"locked"`
	Deactivated bool             `json:"deactivated"`
	Checkout    CheckoutStateDTO `json:"checkout"`
}

type SaleLineDTO struct {
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	LineTotal   json.Number `json:"line_total"`
}

type SaleDTO struct {
	SaleID         string        `json:"sale_id"`
	TerminalID     int64         `json:"terminal_id"`
	CashierID      int64         `json:"cashier_id"`
	Lines          []SaleLineDTO `json:"lines"`
	Subtotal       json.Number   `json:"subtotal"`
	Tax            json.Number   `json:"tax"`
	Discount       json.Number   `json:"discount"`
	Total          json.Number   `json:"total"`
	PaymentMethod  string        `json:"payment_method"`
	AmountTendered json.Number   `json:"amount_tendered"`
	ChangeDue      json.Number   `json:"change_due"`
	Timestamp      time.Time     `json:"timestamp"`
}

func toProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ProductID:      p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Barcode:        p.Barcode,
		UnitPrice:      money.JSON(p.UnitPrice),
		AvailableStock: p.AvailableStock,
	}
}

func toProductList(products []domain.Product, loadedAt time.Time) ProductListDTO {
	out := ProductListDTO{Products: make([]ProductDTO, 0, len(products)), Count: len(products)}
	for _, p := range products {
		out.Products = append(out.Products, toProductDTO(p))
	}
	if !loadedAt.IsZero() {
		out.LoadedAt = &loadedAt
	}
	return out
}

func toCartDTO(v terminal.View) CartDTO {
	lines := make([]LineDTO, 0, len(v.Lines))
	items := 0
	for _, l := range v.Lines {
		items += l.Quantity
		lines = append(lines, LineDTO{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPrice:      money.JSON(l.UnitPrice),
			LineTotal:      money.JSON(l.LineTotal()),
			AvailableStock: l.AvailableStock,
		})
	}
	return CartDTO{
		TerminalID: v.TerminalID,
		Lines:      lines,
		ItemCount:  items,
		Subtotal:   money.JSON(v.Totals.Subtotal),
		Tax:        money.JSON(v.Totals.Tax),
		Discount:   money.JSON(v.Totals.Discount),
		Total:      money.JSON(v.AmountDue),
		Payment: PaymentDTO{
			Method:         v.Payment.Method.String(),
			AmountTendered: money.JSON(v.Payment.AmountTendered),
		},
		ChangeDue:   money.JSON(v.ChangeDue),
		CanCheckout: v.CanCheckout,
		Locked:      v.Locked,
		Deactivated: v.Deactivated,
		Checkout:    toCheckoutStateDTO(v.Checkout),
	}
}

func toCheckoutStateDTO(s checkout.State) CheckoutStateDTO {
	dto := CheckoutStateDTO{Status: s.Status.String()}
	if s.LastErr != nil {
		dto.Error = s.LastErr.Error()
		if subErr, ok := s.LastErr.(*checkout.SaleSubmissionError); ok {
			dto.Error = subErr.Message
			dto.Retryable = subErr.Retryable
		}
	}
	if s.LastSale != nil {
		sale := toSaleDTO(*s.LastSale)
		dto.LastSale = &sale
	}
	return dto
}

func toSaleDTO(s domain.Sale) SaleDTO {
	lines := make([]SaleLineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, SaleLineDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   money.JSON(l.UnitPrice),
			LineTotal:   money.JSON(l.LineTotal),
		})
	}
	return SaleDTO{
		SaleID:         s.SaleID,
		TerminalID:     s.TerminalID,
		CashierID:      s.CashierID,
		Lines:          lines,
		Subtotal:       money.JSON(s.Totals.Subtotal),
		Tax:            money.JSON(s.Totals.Tax),
		Discount:       money.JSON(s.Totals.Discount),
		Total:          money.JSON(s.Totals.AmountDue()),
		PaymentMethod:  s.PaymentMethod.String(),
		AmountTendered: money.JSON(s.AmountTendered),
		ChangeDue:      money.JSON(s.ChangeDue),
		Timestamp:      s.Timestamp,
	}
}
