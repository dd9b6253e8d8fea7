package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukahq/storefront/internal/catalog"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/restock"
)

var (
	_ catalog.StockReader = (*StockRepository)(nil)
	_ restock.StockStore  = (*StockRepository)(nil)
	_ restock.AuditLog    = (*StockRepository)(nil)
)

// StockRepository serves both the read side (branch stock, admin overview)
// and the restock read-modify-write, plus the restock audit log.
type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) BranchStock(ctx context.Context, branchID string) ([]entity.StockLevel, error) {
	const q = `
		SELECT branch_id, product_id, quantity, updated_at
		FROM   stock
		WHERE  branch_id = ?`

	rows, err := r.db.QueryContext(ctx, q, branchID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: stock for branch %q: %w", branchID, err)
	}
	defer rows.Close()

	var levels []entity.StockLevel
	for rows.Next() {
		var (
			level     entity.StockLevel
			updatedAt string
		)
		if err := rows.Scan(&level.BranchID, &level.ProductID, &level.Quantity, &updatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan stock row: %w", err)
		}
		if level.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// Overview joins stock with branch and product names for the admin view,
// headquarters first to match the branch picker.
func (r *StockRepository) Overview(ctx context.Context) ([]entity.StockOverviewRow, error) {
	const q = `
		SELECT b.id, b.name, b.display_name, b.is_headquarter,
		       p.id, p.name, p.unit_price,
		       s.quantity
		FROM   stock s
		JOIN   branches b ON b.id = s.branch_id
		JOIN   products p ON p.id = s.product_id
		ORDER  BY b.is_headquarter DESC, b.name, p.name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: stock overview: %w", err)
	}
	defer rows.Close()

	var out []entity.StockOverviewRow
	for rows.Next() {
		var (
			row   entity.StockOverviewRow
			hq    int
			price string
		)
		err := rows.Scan(
			&row.Branch.ID, &row.Branch.Name, &row.Branch.DisplayName, &hq,
			&row.Product.ID, &row.Product.Name, &price,
			&row.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan overview row: %w", err)
		}
		row.Branch.IsHeadquarter = hq != 0
		if row.Product.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("sqlite: parse unit price %q: %w", price, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Quantity returns the current quantity for the pair, 0 when no row exists.
func (r *StockRepository) Quantity(ctx context.Context, branchID, productID string) (int, error) {
	const q = `
		SELECT quantity
		FROM   stock
		WHERE  branch_id = ? AND product_id = ?`

	var quantity int
	err := r.db.QueryRowContext(ctx, q, branchID, productID).Scan(&quantity)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: read stock %q/%q: %w", branchID, productID, err)
	}
	return quantity, nil
}

// SetQuantity upserts the pair's quantity. No compare-and-swap: the restock
// flow's read-modify-write race is a documented property of the design.
func (r *StockRepository) SetQuantity(ctx context.Context, branchID, productID string, quantity int) error {
	const q = `
		INSERT INTO stock (branch_id, product_id, quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (branch_id, product_id)
		DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, q, branchID, productID, quantity, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: set stock %q/%q: %w", branchID, productID, err)
	}
	return nil
}

// AppendRestock writes one audit row. The table is append-only.
func (r *StockRepository) AppendRestock(ctx context.Context, log entity.RestockLog) error {
	const q = `
		INSERT INTO restock_logs (id, admin_id, branch_id, product_id, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		log.ID, log.AdminID, log.BranchID, log.ProductID, log.Quantity, formatTime(log.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: append restock log: %w", err)
	}
	return nil
}
