package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/grocery-pos/internal/cart"
	"github.com/fjod/grocery-pos/internal/domain"
	"github.com/fjod/grocery-pos/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultSubmitTimeout     = 15 * time.Second
	DefaultSideEffectTimeout = 10 * time.Second
)

type Request struct {
	CashierID int64
}

// Config for a Flow. SideEffectTimeout bounds the catalog refresh and event
// publish that follow a completed sale.
type Config struct {
	TerminalID        int64
	SubmitTimeout     time.Duration
	SideEffectTimeout time.Duration
	Calculator        pricing.Calculator
}

// Deps are the collaborators of a Flow. Catalog, Guard and Events are optional.
type Deps struct {
	Cart      *cart.Store
	Submitter SaleSubmitter
	Catalog   Refresher
	Guard     SubmissionGuard
	Events    EventPublisher
}

// State is what the presentation layer needs to render checkout progress.
type State struct {
	Status   domain.CheckoutStatus
	LastErr  error
	LastSale *domain.Sale
}

// Flow drives a single terminal's checkout state machine.
type Flow struct {
	cfg       Config
	cart      *cart.Store
	submitter SaleSubmitter
	catalog   Refresher
	guard     SubmissionGuard
	events    EventPublisher
	log       *zap.Logger
	now       func() time.Time

	// post-sale side effects still running
	pending sync.WaitGroup

	mu       sync.Mutex
	status   domain.CheckoutStatus
	lastErr  error
	lastSale *domain.Sale

	// idempotency key of the last retryable failure and the cart version it covered
	retryKey     string
	retryVersion uint64
}

func NewFlow(cfg Config, deps Deps, log *zap.Logger) *Flow {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.SideEffectTimeout <= 0 {
		cfg.SideEffectTimeout = DefaultSideEffectTimeout
	}
	if cfg.Calculator.Discounts == nil {
		cfg.Calculator = pricing.NewCalculator(cfg.Calculator.TaxRate, nil)
	}
	if deps.Catalog == nil {
		deps.Catalog = noopRefresher{}
	}
	if deps.Guard == nil {
		deps.Guard = NewMemoryGuard()
	}
	if deps.Events == nil {
		deps.Events = noopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Flow{
		cfg:       cfg,
		cart:      deps.Cart,
		submitter: deps.Submitter,
		catalog:   deps.Catalog,
		guard:     deps.Guard,
		events:    deps.Events,
		log:       log.With(zap.Int64("terminal_id", cfg.TerminalID)),
		now:       time.Now,
		status:    domain.CheckoutStatusIdle,
	}
}

// Process runs one user-initiated checkout. Validation failures return the
// flow to IDLE without touching the network. Once submission starts it runs
// to completion even if ctx is cancelled, bounded by the submit timeout.
func (f *Flow) Process(ctx context.Context, req Request) (*domain.Sale, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}

	snap, err := f.cart.Freeze()
	if err != nil {
		f.abort(ErrCheckoutInProgress)
		return nil, ErrCheckoutInProgress
	}

	saleReq, err := f.validate(snap, req)
	if err != nil {
		f.cart.Unfreeze()
		f.abort(err)
		return nil, err
	}

	release, err := f.guard.Acquire(ctx, f.cfg.TerminalID, saleReq.IdempotencyKey)
	switch {
	case errors.Is(err, ErrCheckoutInProgress):
		f.cart.Unfreeze()
		f.abort(err)
		return nil, err
	case err != nil:
		// the local state machine still serializes this terminal
		f.log.Warn("submission guard unavailable, continuing", zap.Error(err))
		release = func() {}
	}
	defer release()

	if err := f.transition(domain.CheckoutStatusSubmitting); err != nil {
		f.cart.Unfreeze()
		return nil, err
	}

	receipt, err := f.submit(ctx, saleReq)
	if err != nil {
		f.cart.Unfreeze()
		f.fail(saleReq, snap.Version, err)
		return nil, err
	}

	sale := f.buildSale(saleReq, receipt)
	f.cart.ClearFrozen()
	f.succeed(&sale)

	f.log.Info("sale completed",
		zap.String("sale_id", sale.SaleID),
		zap.String("total", sale.Totals.AmountDue().StringFixed(2)),
		zap.String("payment_method", sale.PaymentMethod.String()),
		zap.Int("lines", len(sale.Lines)))

	f.pending.Add(1)
	go f.afterSale(context.WithoutCancel(ctx), sale)
	return &sale, nil
}

// afterSale refreshes the catalog and publishes the sale. Neither outcome is
// reported to the cashier.
func (f *Flow) afterSale(ctx context.Context, sale domain.Sale) {
	defer f.pending.Done()
	ctx, cancel := context.WithTimeout(ctx, f.cfg.SideEffectTimeout)
	defer cancel()

	if err := f.catalog.Refresh(ctx); err != nil {
		f.log.Warn("catalog refresh after sale failed", zap.String("sale_id", sale.SaleID), zap.Error(err))
	}
	if err := f.events.PublishSaleCompleted(ctx, sale); err != nil {
		f.log.Warn("failed to publish sale completed event", zap.String("sale_id", sale.SaleID), zap.Error(err))
	}
}

// Wait blocks until post-sale side effects have finished.
func (f *Flow) Wait() {
	f.pending.Wait()
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{Status: f.status, LastErr: f.lastErr, LastSale: f.lastSale}
}

func (f *Flow) Status() domain.CheckoutStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Reset acknowledges a finished attempt and returns the flow to IDLE.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.IsTerminal() {
		f.status = domain.CheckoutStatusIdle
		f.lastErr = nil
	}
}

func (f *Flow) validate(snap cart.Snapshot, req Request) (SaleRequest, error) {
	if snap.IsEmpty() {
		return SaleRequest{}, ErrEmptyCart
	}

	totals := f.cfg.Calculator.Totals(snap.Lines)
	due := totals.AmountDue()

	tendered := snap.Payment.AmountTendered
	change := pricing.ComputeChange(due, tendered)
	if snap.Payment.Method.IsCash() {
		if change.IsNegative() {
			return SaleRequest{}, &InsufficientPaymentError{Shortfall: change.Neg()}
		}
	} else {
		tendered = due
		change = decimal.Zero
	}

	return SaleRequest{
		IdempotencyKey: f.idempotencyKey(snap.Version),
		TerminalID:     f.cfg.TerminalID,
		CashierID:      req.CashierID,
		Lines:          snap.Lines,
		Totals:         totals,
		Method:         snap.Payment.Method,
		AmountTendered: tendered,
		ChangeDue:      change,
	}, nil
}

// idempotencyKey reuses the key of a retryable failed attempt when the cart
// has not changed since, so a retried sale that did reach the backend is not
// duplicated.
func (f *Flow) idempotencyKey(version uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retryKey != "" && f.retryVersion == version {
		return f.retryKey
	}
	return uuid.NewString()
}

func (f *Flow) submit(ctx context.Context, req SaleRequest) (SaleReceipt, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.cfg.SubmitTimeout)
	defer cancel()

	started := f.now()
	receipt, err := f.submitter.SubmitSale(ctx, req)
	if err != nil {
		return SaleReceipt{}, submissionError(err, ctx.Err())
	}
	if receipt.SaleID == "" {
		return SaleReceipt{}, &SaleSubmissionError{Message: MissingSaleIDMessage}
	}
	f.log.Debug("sale submitted",
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.Duration("elapsed", f.now().Sub(started)))
	return receipt, nil
}

func submissionError(err, ctxErr error) *SaleSubmissionError {
	var subErr *SaleSubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxErr, context.DeadlineExceeded) {
		return &SaleSubmissionError{Message: TimeoutMessage, Retryable: true, Err: err}
	}

	msg := ""
	var m BackendMessenger
	if errors.As(err, &m) {
		msg = m.BackendMessage()
	}
	var r Rejection
	rejected := errors.As(err, &r) && r.Rejected()
	if msg == "" {
		msg = GenericNetworkMessage
	}
	return &SaleSubmissionError{Message: msg, Retryable: !rejected, Err: err}
}

func (f *Flow) buildSale(req SaleRequest, receipt SaleReceipt) domain.Sale {
	lines := make([]domain.SaleLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.SaleLine{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal(),
		})
	}
	return domain.Sale{
		SaleID:         receipt.SaleID,
		Lines:          lines,
		Totals:         req.Totals,
		PaymentMethod:  req.Method,
		AmountTendered: req.AmountTendered,
		ChangeDue:      req.ChangeDue,
		TerminalID:     req.TerminalID,
		CashierID:      req.CashierID,
		Timestamp:      f.now(),
	}
}

// begin moves the flow into VALIDATING. A finished attempt is implicitly
// acknowledged.
func (f *Flow) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.InProgress() {
		return ErrCheckoutInProgress
	}
	if f.status.IsTerminal() {
		f.status = domain.CheckoutStatusIdle
	}
	f.lastErr = nil
	return f.transitionLocked(domain.CheckoutStatusValidating)
}

func (f *Flow) transition(to domain.CheckoutStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transitionLocked(to)
}

func (f *Flow) transitionLocked(to domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(f.status, to) {
		return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, f.status, to)
	}
	f.status = to
	return nil
}

func (f *Flow) abort(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err
	if f.status == domain.CheckoutStatusValidating {
		f.status = domain.CheckoutStatusIdle
	}
}

func (f *Flow) fail(req SaleRequest, version uint64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = domain.CheckoutStatusFailed
	f.lastErr = err
	var subErr *SaleSubmissionError
	if errors.As(err, &subErr) && subErr.Retryable {
		f.retryKey = req.IdempotencyKey
		f.retryVersion = version
	} else {
		f.retryKey = ""
		f.retryVersion = 0
	}
	f.log.Warn("sale submission failed",
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.Error(err))
}

func (f *Flow) succeed(sale *domain.Sale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = domain.CheckoutStatusSucceeded
	f.lastErr = nil
	f.lastSale = sale
	f.retryKey = ""
	f.retryVersion = 0
}
