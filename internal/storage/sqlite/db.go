// Package sqlite is the storefront's backing store: branches, products,
// stock, orders, users and the restock audit log, on a single SQLite file.
//
// The stock decrement on purchase deliberately lives here, in a trigger on
// order_items inserts — not in application code. The checkout flow writes
// order rows and must never assume it decremented anything; the store is
// the external collaborator that reacts.
package sqlite

import (
	"database/sql"
	"fmt"

	// Register the pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS branches (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    display_name    TEXT NOT NULL,
    is_headquarter  INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    -- Money is decimal TEXT, never floating point.
    unit_price  TEXT NOT NULL,
    image_url   TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stock (
    branch_id   TEXT NOT NULL REFERENCES branches(id),
    product_id  TEXT NOT NULL REFERENCES products(id),
    quantity    INTEGER NOT NULL DEFAULT 0,
    updated_at  TEXT NOT NULL,
    PRIMARY KEY (branch_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders (
    id                 TEXT PRIMARY KEY,
    customer_id        TEXT NOT NULL,
    branch_id          TEXT NOT NULL REFERENCES branches(id),
    total_amount       TEXT NOT NULL,
    payment_status     TEXT NOT NULL,
    payment_reference  TEXT NOT NULL DEFAULT '',
    created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id          TEXT PRIMARY KEY,
    order_id    TEXT NOT NULL REFERENCES orders(id),
    product_id  TEXT NOT NULL REFERENCES products(id),
    quantity    INTEGER NOT NULL,
    unit_price  TEXT NOT NULL,
    subtotal    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS restock_logs (
    id          TEXT PRIMARY KEY,
    admin_id    TEXT NOT NULL,
    branch_id   TEXT NOT NULL REFERENCES branches(id),
    product_id  TEXT NOT NULL REFERENCES products(id),
    quantity    INTEGER NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id             TEXT PRIMARY KEY,
    email          TEXT NOT NULL UNIQUE,
    full_name      TEXT NOT NULL DEFAULT '',
    password_hash  TEXT NOT NULL,
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_roles (
    user_id  TEXT PRIMARY KEY REFERENCES users(id),
    role     TEXT NOT NULL
);

-- The stock decrement on purchase. Fires per order_items row; the branch
-- comes from the parent order. Application code never decrements stock.
CREATE TRIGGER IF NOT EXISTS trg_order_items_decrement_stock
AFTER INSERT ON order_items
BEGIN
    UPDATE stock
    SET    quantity   = quantity - NEW.quantity,
           updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
    WHERE  product_id = NEW.product_id
      AND  branch_id  = (SELECT branch_id FROM orders WHERE id = NEW.order_id);
END;

CREATE INDEX IF NOT EXISTS idx_order_items_order_id   ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_product_id ON order_items(product_id);
CREATE INDEX IF NOT EXISTS idx_orders_branch_id       ON orders(branch_id);
`

// seed inserts the five branches and three drinks the storefront sells.
// INSERT OR IGNORE keeps restarts idempotent.
const seed = `
INSERT OR IGNORE INTO branches (id, name, display_name, is_headquarter, created_at) VALUES
    ('b7a1c9de-0001-4000-8000-000000000001', 'nairobi', 'Nairobi',  1, '2024-01-01T00:00:00Z'),
    ('b7a1c9de-0002-4000-8000-000000000002', 'kisumu',  'Kisumu',   0, '2024-01-01T00:00:00Z'),
    ('b7a1c9de-0003-4000-8000-000000000003', 'mombasa', 'Mombasa',  0, '2024-01-01T00:00:00Z'),
    ('b7a1c9de-0004-4000-8000-000000000004', 'nakuru',  'Nakuru',   0, '2024-01-01T00:00:00Z'),
    ('b7a1c9de-0005-4000-8000-000000000005', 'eldoret', 'Eldoret',  0, '2024-01-01T00:00:00Z');

INSERT OR IGNORE INTO products (id, name, unit_price, image_url, created_at) VALUES
    ('p4e2d8aa-0001-4000-8000-000000000001', 'Coca-Cola 500ml', '50',  '', '2024-01-01T00:00:00Z'),
    ('p4e2d8aa-0002-4000-8000-000000000002', 'Fanta 500ml',     '50',  '', '2024-01-01T00:00:00Z'),
    ('p4e2d8aa-0003-4000-8000-000000000003', 'Sprite 500ml',    '50',  '', '2024-01-01T00:00:00Z');

INSERT OR IGNORE INTO stock (branch_id, product_id, quantity, updated_at)
SELECT b.id, p.id, 0, '2024-01-01T00:00:00Z'
FROM   branches b CROSS JOIN products p;
`

// Open opens (or creates) the database at path, applies the schema and the
// seed rows. WAL mode keeps readers from blocking the writer.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	if _, err := db.Exec(seed); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: seed data: %w", err)
	}
	return db, nil
}
