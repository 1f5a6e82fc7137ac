package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/money"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic        = "pos-sales"
	EventSaleCompleted  = "sale.completed"
	defaultFlushTick    = time.Second
	defaultMaxPending   = 1000
	shutdownFlushWindow = 5 * time.Second
)

var ErrOutboxFull = errors.New("sale event outbox is full")

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

type eventItem struct {
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	LineTotal   json.Number `json:"line_total"`
}

type SaleCompletedEvent struct {
	SaleID         string      `json:"sale_id"`
	TerminalID     int64       `json:"terminal_id"`
	CashierID      int64       `json:"cashier_id"`
	PaymentMethod  string      `json:"payment_method"`
	Subtotal       json.Number `json:"subtotal"`
	TaxAmount      json.Number `json:"tax_amount"`
	DiscountAmount json.Number `json:"discount_amount"`
	TotalAmount    json.Number `json:"total_amount"`
	AmountTendered json.Number `json:"amount_tendered"`
	ChangeDue      json.Number `json:"change_due"`
	Items          []eventItem `json:"items"`
	CompletedAt    time.Time   `json:"completed_at"`
}

func NewSaleCompletedEvent(sale domain.Sale) SaleCompletedEvent {
	items := make([]eventItem, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		items = append(items, eventItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   money.JSON(l.UnitPrice),
			LineTotal:   money.JSON(l.LineTotal),
		})
	}
	return SaleCompletedEvent{
		SaleID:         sale.SaleID,
		TerminalID:     sale.TerminalID,
		CashierID:      sale.CashierID,
		PaymentMethod:  sale.PaymentMethod.String(),
		Subtotal:       money.JSON(sale.Totals.Subtotal),
		TaxAmount:      money.JSON(sale.Totals.Tax),
		DiscountAmount: money.JSON(sale.Totals.Discount),
		TotalAmount:    money.JSON(sale.Totals.Total),
		AmountTendered: money.JSON(sale.AmountTendered),
		ChangeDue:      money.JSON(sale.ChangeDue),
		Items:          items,
		CompletedAt:    sale.Timestamp.UTC(),
	}
}

// SalePublisher queues sale-completed events in memory and flushes them to
// Kafka on a ticker. Failed batches stay queued for the next tick.
type SalePublisher struct {
	writer     MessageWriter
	log        *zap.Logger
	tick       time.Duration
	maxPending int

	mu      sync.Mutex
	pending []kafka.Message
}

func NewSalePublisher(writer MessageWriter, log *zap.Logger) *SalePublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &SalePublisher{
		writer:     writer,
		log:        log,
		tick:       defaultFlushTick,
		maxPending: defaultMaxPending,
	}
}

// PublishSaleCompleted queues the event; delivery happens on the next flush.
func (p *SalePublisher) PublishSaleCompleted(_ context.Context, sale domain.Sale) error {
	payload, err := json.Marshal(NewSaleCompletedEvent(sale))
	if err != nil {
		return fmt.Errorf("marshal sale event failed: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(sale.SaleID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventSaleCompleted)},
		},
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) >= p.maxPending {
		return ErrOutboxFull
	}
	p.pending = append(p.pending, msg)
	return nil
}

func (p *SalePublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Flush writes everything queued so far as one batch.
func (p *SalePublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	batch := p.pending
	p.pending = nil
	p.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		p.mu.Lock()
		p.pending = append(batch, p.pending...)
		p.mu.Unlock()
		return fmt.Errorf("failed to publish %d sale events: %w", len(batch), err)
	}
	p.log.Debug("sale events published", zap.Int("count", len(batch)))
	return nil
}

// Run flushes on every tick until ctx is done, then makes one last attempt
// and closes the writer.
func (p *SalePublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil {
				p.log.Warn("sale event flush failed", zap.Error(err))
			}
		case <-ctx.Done():
			p.shutdown()
			return
		}
	}
}

func (p *SalePublisher) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushWindow)
	defer cancel()
	if err := p.Flush(ctx); err != nil {
		p.log.Warn("dropping unpublished sale events", zap.Int("count", p.Pending()), zap.Error(err))
	}
	if err := p.writer.Close(); err != nil {
		p.log.Warn("error closing kafka writer", zap.Error(err))
	}
}
