package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahq/storefront/internal/core/domain/entity"
)

type stubStore struct {
	products []entity.Product
	branches []entity.Branch
	levels   map[string][]entity.StockLevel
	sales    []entity.ProductSales

	stockReads int
}

func (s *stubStore) ListProducts(ctx context.Context) ([]entity.Product, error) {
	return s.products, nil
}

func (s *stubStore) ListBranches(ctx context.Context) ([]entity.Branch, error) {
	return s.branches, nil
}

func (s *stubStore) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return entity.Product{}, context.Canceled
}

func (s *stubStore) GetBranch(ctx context.Context, id string) (entity.Branch, error) {
	for _, b := range s.branches {
		if b.ID == id {
			return b, nil
		}
	}
	return entity.Branch{}, context.Canceled
}

func (s *stubStore) BranchStock(ctx context.Context, branchID string) ([]entity.StockLevel, error) {
	s.stockReads++
	return s.levels[branchID], nil
}

func (s *stubStore) Overview(ctx context.Context) ([]entity.StockOverviewRow, error) {
	return nil, nil
}

func (s *stubStore) SalesByProduct(ctx context.Context) ([]entity.ProductSales, error) {
	return s.sales, nil
}

func newTestService(store *stubStore) *Service {
	return NewService(store, store, store, nil)
}

func TestBranchStockLoadsOnceThenServesTheView(t *testing.T) {
	store := &stubStore{levels: map[string][]entity.StockLevel{
		"b1": {
			{BranchID: "b1", ProductID: "p1", Quantity: 10},
			{BranchID: "b1", ProductID: "p2", Quantity: 0},
		},
	}}
	svc := newTestService(store)

	stock, err := svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 10, "p2": 0}, stock)
	assert.Equal(t, 1, store.stockReads)

	// Second read is served from the view, not the store.
	_, err = svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.stockReads)
}

func TestApplyStockChangeUpdatesTheView(t *testing.T) {
	store := &stubStore{levels: map[string][]entity.StockLevel{
		"b1": {{BranchID: "b1", ProductID: "p1", Quantity: 10}},
	}}
	svc := newTestService(store)

	_, err := svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)

	svc.ApplyStockChange("b1", "p1", 4)

	stock, err := svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 4, stock["p1"])
	assert.Equal(t, 1, store.stockReads, "feed updates never trigger a re-read")
}

func TestApplyStockChangeBeforeFirstReadIsKept(t *testing.T) {
	store := &stubStore{levels: map[string][]entity.StockLevel{
		"b1": {{BranchID: "b1", ProductID: "p1", Quantity: 10}},
	}}
	svc := newTestService(store)

	// A feed event lands before anyone has viewed the branch.
	svc.ApplyStockChange("b1", "p1", 3)

	stock, err := svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, stock["p1"], "the fresher feed value wins over the initial read")
}

func TestBranchStockReturnsACopy(t *testing.T) {
	store := &stubStore{levels: map[string][]entity.StockLevel{
		"b1": {{BranchID: "b1", ProductID: "p1", Quantity: 10}},
	}}
	svc := newTestService(store)

	stock, err := svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)
	stock["p1"] = 999

	again, err := svc.BranchStock(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, 10, again["p1"])
}

func TestSalesReportTotals(t *testing.T) {
	store := &stubStore{sales: []entity.ProductSales{
		{ProductID: "p1", ProductName: "Cola", UnitsSold: 3, Income: decimal.NewFromInt(150)},
		{ProductID: "p2", ProductName: "Fanta", UnitsSold: 2, Income: decimal.NewFromInt(100)},
		{ProductID: "p3", ProductName: "Sprite", UnitsSold: 0, Income: decimal.Zero},
	}}
	svc := newTestService(store)

	report, err := svc.SalesReport(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Rows, 3)
	assert.Equal(t, 5, report.TotalUnits)
	assert.True(t, report.TotalIncome.Equal(decimal.NewFromInt(250)))
}

func TestListBranchesPassesThrough(t *testing.T) {
	store := &stubStore{branches: []entity.Branch{
		{ID: "b1", Name: "nairobi", IsHeadquarter: true},
		{ID: "b2", Name: "mombasa"},
	}}
	svc := newTestService(store)

	branches, err := svc.ListBranches(context.Background())
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.True(t, branches[0].IsHeadquarter, "store returns headquarters first")
}
