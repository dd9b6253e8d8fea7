// Package cart holds the per-session shopping cart: the selected branch and
// the line items, keyed by product id. The store is purely in-memory; a cart
// lives exactly as long as the session that owns it.
package cart

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dukahq/storefront/internal/core/domain/entity"
)

// Line is one cart entry. At most one line exists per product id.
type Line struct {
	Product  entity.Product
	Quantity int
}

// Subtotal is quantity times the unit price captured on the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is a single session's cart. All methods are safe for concurrent
// use, although a session mutates its cart sequentially in practice.
type Store struct {
	mu     sync.Mutex
	branch *entity.Branch
	lines  map[string]*Line
}

func NewStore() *Store {
	return &Store{lines: make(map[string]*Line)}
}

// SetBranch replaces the selected branch. Existing lines are kept even
// though their stock context belongs to the previous branch — matching the
// upstream behaviour, flagged as a likely oversight in DESIGN.md.
func (s *Store) SetBranch(branch *entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branch = branch
}

// Branch returns the selected branch, or nil if none is selected yet.
func (s *Store) Branch() *entity.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branch
}

// Add merges quantity into an existing line for the product or inserts a
// new one. Quantities <= 0 are ignored; stock sufficiency is the caller's
// concern, not the store's.
func (s *Store) Add(product entity.Product, quantity int) {
	if quantity <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if line, ok := s.lines[product.ID]; ok {
		line.Quantity += quantity
		return
	}
	s.lines[product.ID] = &Line{Product: product, Quantity: quantity}
}

// UpdateQuantity sets a line's quantity to exactly quantity. Zero or
// negative removes the line.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		delete(s.lines, productID)
		return
	}
	if line, ok := s.lines[productID]; ok {
		line.Quantity = quantity
	}
}

// Remove deletes the line for productID. No-op if absent.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, productID)
}

// Clear empties all lines but keeps the selected branch.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = make(map[string]*Line)
}

// Lines returns a copy of the current lines, ordered by product id so the
// output is stable across calls.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out
}

// TotalAmount is recomputed from the current lines on every call.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// TotalItems is the sum of all line quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, line := range s.lines {
		total += line.Quantity
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}
