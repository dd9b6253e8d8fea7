package checkout

import (
	"sync"
	"time"

	"github.com/dukahq/storefront/internal/cart"
	"github.com/dukahq/storefront/internal/checkout/checkoutlog"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/payment"
)

// Registry hands out one Machine per session, bound to that session's cart.
// Like the cart registry, it replaces ambient globals with an injectable
// container owned by the server.
type Registry struct {
	gateway      payment.Gateway
	orders       OrderStore
	auditor      checkoutlog.Repository
	successDelay time.Duration

	mu       sync.Mutex
	machines map[string]*Machine
}

func NewRegistry(gateway payment.Gateway, orders OrderStore, auditor checkoutlog.Repository, successDelay time.Duration) *Registry {
	return &Registry{
		gateway:      gateway,
		orders:       orders,
		auditor:      auditor,
		successDelay: successDelay,
		machines:     make(map[string]*Machine),
	}
}

// For returns the machine for the session, creating it on first use.
func (r *Registry) For(session entity.Session, store *cart.Store) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.machines[session.UserID]
	if !ok {
		m = NewMachine(session, store, r.gateway, r.orders, r.auditor, r.successDelay)
		r.machines[session.UserID] = m
	}
	return m
}

// Drop tears down the machine for a session on sign-out.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, sessionID)
}
