package cart

import "sync"

// Registry hands out one Store per session id. It replaces the ambient
// global cart context of the upstream design with an explicit, injectable
// container: created at server start, carts created lazily per session and
// dropped on sign-out.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// For returns the cart for sessionID, creating it on first use.
func (r *Registry) For(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[sessionID]
	if !ok {
		store = NewStore()
		r.stores[sessionID] = store
	}
	return store
}

// Drop tears down the cart for sessionID, ending its lifecycle.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}
