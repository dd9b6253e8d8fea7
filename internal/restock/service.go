// Package restock implements the admin restock flow: read the current
// stock quantity for a branch/product pair, write back current+delta, and
// append an audit row.
//
// The read-modify-write runs with no isolation, exactly like the upstream
// flow: two concurrent restocks of the same pair can read the same snapshot
// and the second write wins. Documented, tested, deliberately not fixed.
package restock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/realtime"
)

// ErrInvalidQuantity rejects non-positive deltas before any side effect.
var ErrInvalidQuantity = errors.New("restock: quantity must be greater than zero")

// StockStore is the read-modify-write surface. Quantity returns 0 for a
// pair with no stock row yet; SetQuantity upserts.
type StockStore interface {
	Quantity(ctx context.Context, branchID, productID string) (int, error)
	SetQuantity(ctx context.Context, branchID, productID string, quantity int) error
}

// AuditLog appends one row per restock action.
type AuditLog interface {
	AppendRestock(ctx context.Context, log entity.RestockLog) error
}

// NameLookup resolves display names for the result message.
type NameLookup interface {
	GetBranch(ctx context.Context, id string) (entity.Branch, error)
	GetProduct(ctx context.Context, id string) (entity.Product, error)
}

// Result reports what a restock did, with the display names the admin UI
// shows in its confirmation.
type Result struct {
	BranchName  string
	ProductName string
	Added       int
	NewQuantity int
}

// Service wires the flow. feed may be nil in tests.
type Service struct {
	stock StockStore
	audit AuditLog
	names NameLookup
	feed  realtime.Publisher
}

func NewService(stock StockStore, audit AuditLog, names NameLookup, feed realtime.Publisher) *Service {
	return &Service{stock: stock, audit: audit, names: names, feed: feed}
}

// Restock adds delta units of a product to a branch and logs the action.
func (s *Service) Restock(ctx context.Context, adminID, branchID, productID string, delta int) (Result, error) {
	if delta <= 0 {
		return Result{}, ErrInvalidQuantity
	}

	branch, err := s.names.GetBranch(ctx, branchID)
	if err != nil {
		return Result{}, fmt.Errorf("restock: unknown branch %s: %w", branchID, err)
	}
	product, err := s.names.GetProduct(ctx, productID)
	if err != nil {
		return Result{}, fmt.Errorf("restock: unknown product %s: %w", productID, err)
	}

	// Snapshot read; a concurrent restock between here and SetQuantity is
	// lost (last write wins on the snapshot).
	current, err := s.stock.Quantity(ctx, branchID, productID)
	if err != nil {
		return Result{}, fmt.Errorf("restock: read stock %s/%s: %w", branchID, productID, err)
	}

	newQuantity := current + delta
	if err := s.stock.SetQuantity(ctx, branchID, productID, newQuantity); err != nil {
		return Result{}, fmt.Errorf("restock: write stock %s/%s: %w", branchID, productID, err)
	}

	if err := s.audit.AppendRestock(ctx, entity.RestockLog{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		BranchID:  branchID,
		ProductID: productID,
		Quantity:  delta,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		// Stock is already updated; surface the audit failure rather than
		// unwinding the write.
		return Result{}, fmt.Errorf("restock: append audit log: %w", err)
	}

	slog.InfoContext(ctx, "restock applied",
		"admin_id", adminID, "branch_id", branchID, "product_id", productID,
		"added", delta, "new_quantity", newQuantity)

	if s.feed != nil {
		if err := s.feed.Publish(ctx, realtime.Event{
			Table:     realtime.TableStock,
			Action:    realtime.ActionUpdate,
			BranchID:  branchID,
			ProductID: productID,
			Quantity:  newQuantity,
		}); err != nil {
			slog.WarnContext(ctx, "restock: stock change publish failed", "error", err)
		}
	}

	return Result{
		BranchName:  branch.DisplayName,
		ProductName: product.Name,
		Added:       delta,
		NewQuantity: newQuantity,
	}, nil
}
