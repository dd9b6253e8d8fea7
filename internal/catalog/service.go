// Package catalog serves the read-only projections: product list, branch
// list, per-branch stock, the admin stock overview and the sales report.
// Stock quantities flow in twice — a full read on first access, then
// per-row updates pushed by the realtime feed.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/pkg/cache"
)

// Repository is the slice of the store the catalog reads. Branches come
// back headquarters-first.
type Repository interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
	ListBranches(ctx context.Context) ([]entity.Branch, error)
	GetProduct(ctx context.Context, id string) (entity.Product, error)
	GetBranch(ctx context.Context, id string) (entity.Branch, error)
}

// StockReader reads stock rows and the admin overview join.
type StockReader interface {
	BranchStock(ctx context.Context, branchID string) ([]entity.StockLevel, error)
	Overview(ctx context.Context) ([]entity.StockOverviewRow, error)
}

// SalesReader aggregates completed order items per product.
type SalesReader interface {
	SalesByProduct(ctx context.Context) ([]entity.ProductSales, error)
}

// Report is the sales report plus its grand totals.
type Report struct {
	Rows        []entity.ProductSales
	TotalUnits  int
	TotalIncome decimal.Decimal
}

const productsCacheTTL = 5 * time.Minute

// Service is the catalog read side. cache may be nil.
type Service struct {
	repo  Repository
	stock StockReader
	sales SalesReader
	cache cache.Cache

	// stockView is the realtime-fed read model: branch id → product id →
	// quantity. Loaded lazily per branch, then amended by ApplyStockChange.
	mu        sync.Mutex
	stockView map[string]map[string]int
}

func NewService(repo Repository, stock StockReader, sales SalesReader, c cache.Cache) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		sales:     sales,
		cache:     c,
		stockView: make(map[string]map[string]int),
	}
}

// ListProducts returns the product catalog, served from the cache when one
// is configured.
func (s *Service) ListProducts(ctx context.Context) ([]entity.Product, error) {
	if s.cache != nil {
		key := s.cache.GenerateKey("products", "all")
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var products []entity.Product
			if err := json.Unmarshal([]byte(raw), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(products); err == nil {
			key := s.cache.GenerateKey("products", "all")
			if err := s.cache.Set(ctx, key, raw, productsCacheTTL); err != nil {
				slog.WarnContext(ctx, "catalog: product cache set failed", "error", err)
			}
		}
	}
	return products, nil
}

// ListBranches returns all branches, headquarters first.
func (s *Service) ListBranches(ctx context.Context) ([]entity.Branch, error) {
	branches, err := s.repo.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: list branches: %w", err)
	}
	return branches, nil
}

// GetProduct fetches one product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetBranch fetches one branch by id.
func (s *Service) GetBranch(ctx context.Context, id string) (entity.Branch, error) {
	return s.repo.GetBranch(ctx, id)
}

// BranchStock returns product id → quantity for a branch. The first call
// per branch reads the store; afterwards the view is kept current by the
// realtime feed.
func (s *Service) BranchStock(ctx context.Context, branchID string) (map[string]int, error) {
	s.mu.Lock()
	view, ok := s.stockView[branchID]
	s.mu.Unlock()
	if ok {
		return copyView(view), nil
	}

	levels, err := s.stock.BranchStock(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("catalog: stock for branch %s: %w", branchID, err)
	}

	view = make(map[string]int, len(levels))
	for _, level := range levels {
		view[level.ProductID] = level.Quantity
	}

	s.mu.Lock()
	// A feed update may have landed while we were reading; keep it.
	if existing, ok := s.stockView[branchID]; ok {
		for productID, qty := range existing {
			view[productID] = qty
		}
	}
	s.stockView[branchID] = view
	out := copyView(view)
	s.mu.Unlock()

	return out, nil
}

// ApplyStockChange is the feed handler: it pushes one row's new quantity
// into the read model. It touches nothing but the catalog view.
func (s *Service) ApplyStockChange(branchID, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.stockView[branchID]
	if !ok {
		view = make(map[string]int)
		s.stockView[branchID] = view
	}
	view[productID] = quantity
}

// StockOverview is the admin view: every branch × product with names.
func (s *Service) StockOverview(ctx context.Context) ([]entity.StockOverviewRow, error) {
	rows, err := s.stock.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: stock overview: %w", err)
	}
	return rows, nil
}

// SalesReport aggregates completed sales per product and totals them.
func (s *Service) SalesReport(ctx context.Context) (Report, error) {
	rows, err := s.sales.SalesByProduct(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("catalog: sales report: %w", err)
	}

	report := Report{Rows: rows, TotalIncome: decimal.Zero}
	for _, row := range rows {
		report.TotalUnits += row.UnitsSold
		report.TotalIncome = report.TotalIncome.Add(row.Income)
	}
	return report, nil
}

func copyView(view map[string]int) map[string]int {
	out := make(map[string]int, len(view))
	for k, v := range view {
		out[k] = v
	}
	return out
}
