// Package checkout implements the payment state machine:
//
//	Idle → Processing → {Succeeded, Failed}, Failed → Idle on retry.
//
// One Machine exists per session. It consumes the session's cart and
// identity, drives the payment gateway, and on approval persists the order
// and its line items. It never decrements stock — that is the job of the
// database trigger firing on order_items inserts.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukahq/storefront/internal/cart"
	"github.com/dukahq/storefront/internal/checkout/checkoutlog"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/payment"
)

// State is the observable position of the machine.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// ErrNotIdle is returned when Submit is called while an attempt is in
// flight or a failed attempt has not been retried yet.
var ErrNotIdle = errors.New("checkout: submit requires the idle state")

// ErrNotFailed is returned when Retry is called outside the failed state.
var ErrNotFailed = errors.New("checkout: retry requires the failed state")

// ValidationError is a precondition violation caught before any side
// effect. The machine stays in Idle.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "checkout: " + e.Reason
}

// OrderStore is the slice of persistence the machine needs. The order write
// strictly precedes the items write; the two are sequential, not
// transactional, matching the upstream behaviour.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *entity.Order) error
	CreateOrderItems(ctx context.Context, items []entity.OrderItem) error
}

// Result is what a finished Submit reports to the caller.
type Result struct {
	State            State
	OrderID          string
	PaymentReference string
	Total            decimal.Decimal
	// Message is the user-facing outcome text. Persistence failures after
	// an approval carry the same generic text as a decline; the audit log
	// keeps the distinction.
	Message string
}

// Machine drives one session's checkout. Methods are safe for concurrent
// use; a session submits sequentially in practice.
type Machine struct {
	session entity.Session
	cart    *cart.Store
	gateway payment.Gateway
	orders  OrderStore
	auditor checkoutlog.Repository // nil-safe: auditing skipped if nil

	// successDelay is how long the success state stays visible before the
	// cart clears and the machine resets for the next purchase.
	successDelay time.Duration

	// schedule defaults to time.AfterFunc; tests swap it to run inline.
	schedule func(d time.Duration, f func())

	mu   sync.Mutex
	st   State
	last Result
}

// NewMachine wires a machine for one session. auditor may be nil.
func NewMachine(
	session entity.Session,
	store *cart.Store,
	gateway payment.Gateway,
	orders OrderStore,
	auditor checkoutlog.Repository,
	successDelay time.Duration,
) *Machine {
	return &Machine{
		session:      session,
		cart:         store,
		gateway:      gateway,
		orders:       orders,
		auditor:      auditor,
		successDelay: successDelay,
		schedule:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		st:           StateIdle,
	}
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

// Last returns the result of the most recent finished attempt.
func (m *Machine) Last() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Retry moves Failed back to Idle. Cart contents and the caller's entered
// payer handle are untouched — only the displayed status clears.
func (m *Machine) Retry() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st != StateFailed {
		return ErrNotFailed
	}
	m.st = StateIdle
	m.last = Result{}
	return nil
}

// Submit runs one checkout attempt to completion and returns the outcome.
// Validation failures reject locally: no transition, no side effect.
//
// The attempt is detached from the request context once it starts — the
// upstream flow is fire-and-forget past submission, so a client navigating
// away must not abort the payment or the writes mid-flight.
func (m *Machine) Submit(ctx context.Context, payerHandle string) (Result, error) {
	snapshot, err := m.begin(payerHandle)
	if err != nil {
		return Result{}, err
	}

	ctx = context.WithoutCancel(ctx)
	return m.run(ctx, snapshot, payerHandle), nil
}

// attemptSnapshot freezes the cart at submission so a concurrent cart edit
// cannot skew the order that gets written.
type attemptSnapshot struct {
	branch entity.Branch
	lines  []cart.Line
	total  decimal.Decimal
}

// begin validates the preconditions and claims the Processing state.
func (m *Machine) begin(payerHandle string) (attemptSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st != StateIdle {
		return attemptSnapshot{}, ErrNotIdle
	}

	if m.session.UserID == "" {
		return attemptSnapshot{}, &ValidationError{Reason: "sign in before paying"}
	}
	branch := m.cart.Branch()
	if branch == nil {
		return attemptSnapshot{}, &ValidationError{Reason: "select a branch before paying"}
	}
	if m.cart.IsEmpty() {
		return attemptSnapshot{}, &ValidationError{Reason: "cart is empty"}
	}
	if !payment.ValidPayerHandle(payerHandle) {
		return attemptSnapshot{}, &ValidationError{Reason: "payer handle must be 254 followed by nine digits"}
	}

	m.st = StateProcessing
	return attemptSnapshot{
		branch: *branch,
		lines:  m.cart.Lines(),
		total:  m.cart.TotalAmount(),
	}, nil
}

// run executes the attempt: gateway charge, then order + items writes.
// All failures are recovered here and mapped to StateFailed; none propagate
// to the caller as errors.
func (m *Machine) run(ctx context.Context, snap attemptSnapshot, payerHandle string) Result {
	orderID := uuid.NewString()
	m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusStarted, "", m.payloadJSON(snap, payerHandle), nil))

	receipt, err := m.gateway.Attempt(ctx, snap.total, payerHandle)
	if err != nil {
		slog.ErrorContext(ctx, "payment gateway fault", "order_id", orderID, "error", err)
		m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusFailed, "payment_attempt", "", []string{err.Error()}))
		return m.fail("The payment could not be processed. Please try again.")
	}
	if !receipt.Approved {
		m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusDeclined, "payment_attempt", "", nil))
		return m.fail("The M-Pesa transaction was not completed. Please try again.")
	}
	m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusStepDone, "payment_attempt", "", nil))

	order := &entity.Order{
		ID:               orderID,
		CustomerID:       m.session.UserID,
		BranchID:         snap.branch.ID,
		TotalAmount:      snap.total,
		PaymentStatus:    entity.PaymentCompleted,
		PaymentReference: receipt.Reference,
		CreatedAt:        time.Now().UTC(),
	}
	if err := m.orders.CreateOrder(ctx, order); err != nil {
		// Money moved, nothing recorded. The customer sees a generic
		// failure; the audit row makes the gap findable.
		slog.ErrorContext(ctx, "CRITICAL: payment approved but order write failed",
			"order_id", orderID, "reference", receipt.Reference, "error", err)
		m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusRecordingFailed, "order_write", "", []string{err.Error()}))
		return m.fail("The M-Pesa transaction was not completed. Please try again.")
	}
	m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusStepDone, "order_write", "", nil))

	items := make([]entity.OrderItem, len(snap.lines))
	for i, line := range snap.lines {
		items[i] = entity.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice,
			Subtotal:  line.Subtotal(),
		}
	}
	if err := m.orders.CreateOrderItems(ctx, items); err != nil {
		// Partial write: the order row exists without items. No cleanup
		// here, by the same contract — the audit log carries the case.
		slog.ErrorContext(ctx, "CRITICAL: order written but items write failed",
			"order_id", orderID, "reference", receipt.Reference, "error", err)
		m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusRecordingFailed, "order_items_write", "", []string{err.Error()}))
		return m.fail("The M-Pesa transaction was not completed. Please try again.")
	}
	m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusStepDone, "order_items_write", "", nil))

	m.audit(ctx, checkoutlog.NewEntry(ctx, orderID, checkoutlog.StatusCompleted, "", "", nil))
	slog.InfoContext(ctx, "checkout completed", "order_id", orderID, "reference", receipt.Reference, "total", snap.total.String())

	result := Result{
		State:            StateSucceeded,
		OrderID:          orderID,
		PaymentReference: receipt.Reference,
		Total:            snap.total,
		Message:          fmt.Sprintf("Payment successful. Transaction reference: %s", receipt.Reference),
	}

	m.mu.Lock()
	m.st = StateSucceeded
	m.last = result
	m.mu.Unlock()

	// Keep the success state visible, then clear the cart and reset for
	// the next purchase.
	m.schedule(m.successDelay, func() {
		m.cart.Clear()
		m.mu.Lock()
		if m.st == StateSucceeded {
			m.st = StateIdle
		}
		m.mu.Unlock()
	})

	return result
}

func (m *Machine) fail(message string) Result {
	result := Result{State: StateFailed, Message: message}
	m.mu.Lock()
	m.st = StateFailed
	m.last = result
	m.mu.Unlock()
	return result
}

// audit writes a log entry, tolerating a nil repository and save errors —
// the audit trail must never take the checkout down with it.
func (m *Machine) audit(ctx context.Context, entry *checkoutlog.Entry) {
	if m.auditor == nil {
		return
	}
	if err := m.auditor.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "checkout log save failed", "checkout_id", entry.CheckoutID, "error", err)
	}
}

func (m *Machine) payloadJSON(snap attemptSnapshot, payerHandle string) string {
	type lineJSON struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
		UnitPrice string `json:"unit_price"`
	}
	payload := struct {
		CustomerID  string     `json:"customer_id"`
		BranchID    string     `json:"branch_id"`
		PayerHandle string     `json:"payer_handle"`
		Total       string     `json:"total"`
		Lines       []lineJSON `json:"lines"`
	}{
		CustomerID:  m.session.UserID,
		BranchID:    snap.branch.ID,
		PayerHandle: payerHandle,
		Total:       snap.total.String(),
	}
	for _, line := range snap.lines {
		payload.Lines = append(payload.Lines, lineJSON{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice.String(),
		})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}
