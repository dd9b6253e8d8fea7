package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one of the drinks sold in every branch.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
	CreatedAt time.Time
}

// Branch is a physical retail location. Exactly one branch is the
// headquarters; restocks are shipped from there.
type Branch struct {
	ID            string
	Name          string
	DisplayName   string
	IsHeadquarter bool
	CreatedAt     time.Time
}

// StockLevel is the quantity of a product available at a branch.
type StockLevel struct {
	BranchID  string
	ProductID string
	Quantity  int
	UpdatedAt time.Time
}

// StockOverviewRow is a StockLevel joined with display names for the
// admin stock overview.
type StockOverviewRow struct {
	Branch   Branch
	Product  Product
	Quantity int
}

// RestockLog is an append-only audit row written for every admin restock.
type RestockLog struct {
	ID        string
	AdminID   string
	BranchID  string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}

// ProductSales is one row of the sales report: units sold and income for
// a single product across all completed orders.
type ProductSales struct {
	ProductID   string
	ProductName string
	UnitsSold   int
	Income      decimal.Decimal
}
