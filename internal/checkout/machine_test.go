package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahq/storefront/internal/cart"
	"github.com/dukahq/storefront/internal/checkout/checkoutlog"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/payment"
)

const testHandle = "254712345678"

type stubGateway struct {
	receipt payment.Receipt
	err     error
}

func (g *stubGateway) Attempt(ctx context.Context, amount decimal.Decimal, payerHandle string) (payment.Receipt, error) {
	return g.receipt, g.err
}

type recordingOrderStore struct {
	mu       sync.Mutex
	orders   []entity.Order
	items    []entity.OrderItem
	orderErr error
	itemsErr error
}

func (s *recordingOrderStore) CreateOrder(ctx context.Context, order *entity.Order) error {
	if s.orderErr != nil {
		return s.orderErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, *order)
	return nil
}

func (s *recordingOrderStore) CreateOrderItems(ctx context.Context, items []entity.OrderItem) error {
	if s.itemsErr != nil {
		return s.itemsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

type memoryAuditLog struct {
	mu      sync.Mutex
	entries []checkoutlog.Entry
}

func (l *memoryAuditLog) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *memoryAuditLog) statuses() []checkoutlog.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]checkoutlog.Status, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Status
	}
	return out
}

func filledCart(t *testing.T) *cart.Store {
	t.Helper()
	store := cart.NewStore()
	store.SetBranch(&entity.Branch{ID: "b1", DisplayName: "Nairobi CBD"})
	store.Add(entity.Product{ID: "p1", Name: "Cola", UnitPrice: decimal.NewFromInt(50)}, 1)
	return store
}

// newTestMachine builds a machine with the scheduler replaced by an inline
// call, so the success display delay resolves synchronously.
func newTestMachine(store *cart.Store, gw payment.Gateway, orders OrderStore, audit checkoutlog.Repository) *Machine {
	m := NewMachine(entity.Session{UserID: "u1", Role: entity.RoleCustomer}, store, gw, orders, audit, 0)
	m.schedule = func(d time.Duration, f func()) { f() }
	return m
}

func TestSubmitValidationFailuresHaveNoSideEffects(t *testing.T) {
	gw := &stubGateway{receipt: payment.Receipt{Approved: true, Reference: "MPESA1"}}

	tests := []struct {
		name   string
		store  *cart.Store
		handle string
	}{
		{"no branch selected", func() *cart.Store {
			s := cart.NewStore()
			s.Add(entity.Product{ID: "p1", UnitPrice: decimal.NewFromInt(50)}, 1)
			return s
		}(), testHandle},
		{"empty cart", func() *cart.Store {
			s := cart.NewStore()
			s.SetBranch(&entity.Branch{ID: "b1"})
			return s
		}(), testHandle},
		{"malformed handle", filledCart(t), "0712345678"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orders := &recordingOrderStore{}
			audit := &memoryAuditLog{}
			m := newTestMachine(tc.store, gw, orders, audit)

			_, err := m.Submit(context.Background(), tc.handle)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, StateIdle, m.State(), "validation failure must not transition")
			assert.Empty(t, orders.orders)
			assert.Empty(t, audit.entries, "nothing may be logged before validation passes")
		})
	}
}

func TestSubmitRequiresSignedInSession(t *testing.T) {
	m := NewMachine(entity.Session{}, filledCart(t), &stubGateway{}, &recordingOrderStore{}, nil, 0)

	_, err := m.Submit(context.Background(), testHandle)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmitSuccessWritesOrderAndItemsFromSnapshot(t *testing.T) {
	store := filledCart(t)
	gw := &stubGateway{receipt: payment.Receipt{Approved: true, Reference: "MPESA1700000000000"}}
	orders := &recordingOrderStore{}
	audit := &memoryAuditLog{}
	m := newTestMachine(store, gw, orders, audit)

	result, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, result.State)
	assert.Equal(t, "MPESA1700000000000", result.PaymentReference)
	assert.True(t, result.Total.Equal(decimal.NewFromInt(50)))

	require.Len(t, orders.orders, 1)
	order := orders.orders[0]
	assert.Equal(t, "u1", order.CustomerID)
	assert.Equal(t, "b1", order.BranchID)
	assert.Equal(t, entity.PaymentCompleted, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(50)))

	require.Len(t, orders.items, 1)
	item := orders.items[0]
	assert.Equal(t, order.ID, item.OrderID)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, 1, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, item.Subtotal.Equal(decimal.NewFromInt(50)))

	// Inline scheduler: the success display has already elapsed, so the
	// cart is cleared and the machine is ready for the next purchase.
	assert.True(t, store.IsEmpty())
	assert.Equal(t, StateIdle, m.State())

	assert.Contains(t, audit.statuses(), checkoutlog.StatusStarted)
	assert.Contains(t, audit.statuses(), checkoutlog.StatusCompleted)
}

func TestSubmitDeclineWritesNothing(t *testing.T) {
	store := filledCart(t)
	gw := &stubGateway{receipt: payment.Receipt{Approved: false}}
	orders := &recordingOrderStore{}
	audit := &memoryAuditLog{}
	m := newTestMachine(store, gw, orders, audit)

	result, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateFailed, m.State())
	assert.Empty(t, orders.orders)
	assert.Empty(t, orders.items)
	assert.False(t, store.IsEmpty(), "decline keeps the cart for a retry")
	assert.Contains(t, audit.statuses(), checkoutlog.StatusDeclined)
	assert.NotContains(t, audit.statuses(), checkoutlog.StatusRecordingFailed)
}

func TestSubmitGatewayFaultFails(t *testing.T) {
	gw := &stubGateway{err: errors.New("gateway unreachable")}
	orders := &recordingOrderStore{}
	audit := &memoryAuditLog{}
	m := newTestMachine(filledCart(t), gw, orders, audit)

	result, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.State)
	assert.Empty(t, orders.orders)
	assert.Contains(t, audit.statuses(), checkoutlog.StatusFailed)
}

func TestSubmitOrderWriteFailureAfterApproval(t *testing.T) {
	store := filledCart(t)
	gw := &stubGateway{receipt: payment.Receipt{Approved: true, Reference: "MPESA2"}}
	orders := &recordingOrderStore{orderErr: errors.New("disk full")}
	audit := &memoryAuditLog{}
	m := newTestMachine(store, gw, orders, audit)

	result, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)

	// The customer sees the same generic failure as a decline.
	assert.Equal(t, StateFailed, result.State)
	assert.NotContains(t, result.Message, "MPESA2")

	// The audit trail keeps the distinction for reconciliation.
	assert.Contains(t, audit.statuses(), checkoutlog.StatusRecordingFailed)
	assert.NotContains(t, audit.statuses(), checkoutlog.StatusDeclined)
	assert.False(t, store.IsEmpty())
}

func TestSubmitItemsWriteFailureAfterApproval(t *testing.T) {
	gw := &stubGateway{receipt: payment.Receipt{Approved: true, Reference: "MPESA3"}}
	orders := &recordingOrderStore{itemsErr: errors.New("disk full")}
	audit := &memoryAuditLog{}
	m := newTestMachine(filledCart(t), gw, orders, audit)

	result, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)

	assert.Equal(t, StateFailed, result.State)
	require.Len(t, orders.orders, 1, "order row is written before the items fail")
	assert.Empty(t, orders.items)
	assert.Contains(t, audit.statuses(), checkoutlog.StatusRecordingFailed)
}

func TestSubmitWhileNotIdleIsRejected(t *testing.T) {
	m := newTestMachine(filledCart(t), &stubGateway{receipt: payment.Receipt{Approved: false}}, &recordingOrderStore{}, nil)

	_, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)
	require.Equal(t, StateFailed, m.State())

	_, err = m.Submit(context.Background(), testHandle)
	assert.ErrorIs(t, err, ErrNotIdle)
}

func TestRetryOnlyFromFailed(t *testing.T) {
	store := filledCart(t)
	m := newTestMachine(store, &stubGateway{receipt: payment.Receipt{Approved: false}}, &recordingOrderStore{}, nil)

	assert.ErrorIs(t, m.Retry(), ErrNotFailed, "retry from idle")

	_, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)
	require.Equal(t, StateFailed, m.State())

	require.NoError(t, m.Retry())
	assert.Equal(t, StateIdle, m.State())
	assert.False(t, store.IsEmpty(), "retry keeps the cart contents")

	// Back in idle, a fresh submit is accepted again.
	_, err = m.Submit(context.Background(), testHandle)
	require.NoError(t, err)
}

func TestNilAuditorIsTolerated(t *testing.T) {
	gw := &stubGateway{receipt: payment.Receipt{Approved: true, Reference: "MPESA4"}}
	m := newTestMachine(filledCart(t), gw, &recordingOrderStore{}, nil)

	result, err := m.Submit(context.Background(), testHandle)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, result.State)
}

func TestRegistryReturnsSameMachinePerSession(t *testing.T) {
	r := NewRegistry(&stubGateway{}, &recordingOrderStore{}, nil, 0)
	session := entity.Session{UserID: "u1"}
	store := cart.NewStore()

	first := r.For(session, store)
	second := r.For(session, store)
	assert.Same(t, first, second)

	r.Drop("u1")
	assert.NotSame(t, first, r.For(session, store))
}
