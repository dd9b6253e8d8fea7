package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dukahq/storefront/internal/catalog"
	"github.com/dukahq/storefront/internal/checkout"
	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/realtime"
)

var (
	_ checkout.OrderStore = (*OrderRepository)(nil)
	_ catalog.SalesReader = (*OrderRepository)(nil)
)

// OrderRepository writes orders and their items and aggregates sales.
//
// It also plays the backing store's change feed: after each write it emits
// row-change events — including the stock rows the decrement trigger
// touched, which application code never modified itself.
type OrderRepository struct {
	db   *sql.DB
	feed realtime.Publisher // may be nil
}

func NewOrderRepository(db *sql.DB, feed realtime.Publisher) *OrderRepository {
	return &OrderRepository{db: db, feed: feed}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) error {
	const q = `
		INSERT INTO orders (id, customer_id, branch_id, total_amount, payment_status, payment_reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		order.ID,
		order.CustomerID,
		order.BranchID,
		order.TotalAmount.String(),
		string(order.PaymentStatus),
		order.PaymentReference,
		formatTime(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create order %q: %w", order.ID, err)
	}

	r.publish(ctx, realtime.Event{
		Table:    realtime.TableOrders,
		Action:   realtime.ActionInsert,
		OrderID:  order.ID,
		BranchID: order.BranchID,
	})
	return nil
}

// CreateOrderItems inserts the items one statement at a time so the
// decrement trigger fires per row, then emits the resulting stock changes.
func (r *OrderRepository) CreateOrderItems(ctx context.Context, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	const q = `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, subtotal)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, item := range items {
		_, err := r.db.ExecContext(ctx, q,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice.String(),
			item.Subtotal.String(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: create order item for %q: %w", item.OrderID, err)
		}
		r.publish(ctx, realtime.Event{
			Table:     realtime.TableOrderItems,
			Action:    realtime.ActionInsert,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	r.publishStockAfterOrder(ctx, items[0].OrderID)
	return nil
}

// publishStockAfterOrder re-reads the stock rows the trigger just touched
// and emits their new quantities, so subscribed views update without
// polling.
func (r *OrderRepository) publishStockAfterOrder(ctx context.Context, orderID string) {
	if r.feed == nil {
		return
	}

	const q = `
		SELECT s.branch_id, s.product_id, s.quantity
		FROM   stock s
		JOIN   orders o ON o.branch_id = s.branch_id
		WHERE  o.id = ?
		  AND  s.product_id IN (SELECT product_id FROM order_items WHERE order_id = ?)`

	rows, err := r.db.QueryContext(ctx, q, orderID, orderID)
	if err != nil {
		slog.WarnContext(ctx, "sqlite: read stock after order failed", "order_id", orderID, "error", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var event realtime.Event
		if err := rows.Scan(&event.BranchID, &event.ProductID, &event.Quantity); err != nil {
			slog.WarnContext(ctx, "sqlite: scan stock after order failed", "order_id", orderID, "error", err)
			return
		}
		event.Table = realtime.TableStock
		event.Action = realtime.ActionUpdate
		r.publish(ctx, event)
	}
}

// SalesByProduct aggregates completed order items per product. Products
// with no sales still appear with zeroes, matching the report layout.
func (r *OrderRepository) SalesByProduct(ctx context.Context) ([]entity.ProductSales, error) {
	const q = `
		SELECT p.id, p.name,
		       COALESCE(SUM(sold.quantity), 0),
		       COALESCE(SUM(sold.subtotal), 0)
		FROM   products p
		LEFT JOIN (
		    SELECT oi.product_id, oi.quantity, CAST(oi.subtotal AS REAL) AS subtotal
		    FROM   order_items oi
		    JOIN   orders o ON o.id = oi.order_id
		    WHERE  o.payment_status = 'completed'
		) sold ON sold.product_id = p.id
		GROUP  BY p.id, p.name
		ORDER  BY p.name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: sales by product: %w", err)
	}
	defer rows.Close()

	var out []entity.ProductSales
	for rows.Next() {
		var (
			row    entity.ProductSales
			income float64
		)
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.UnitsSold, &income); err != nil {
			return nil, fmt.Errorf("sqlite: scan sales row: %w", err)
		}
		row.Income = decimal.NewFromFloat(income)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *OrderRepository) publish(ctx context.Context, event realtime.Event) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "sqlite: change feed publish failed", "table", event.Table, "error", err)
	}
}
