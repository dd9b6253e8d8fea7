// Package sqlite provides a SQLite-backed implementation of
// checkoutlog.Repository.
//
// WAL mode is enabled on Open so readers never block writers — the checkout
// goroutine writes while admin endpoints may be reading the log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukahq/storefront/internal/checkout/checkoutlog"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// keeping Alpine/Docker builds trivial.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. The table is append-only:
// each row is an immutable event in a checkout attempt's lifecycle.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Business identifier: the order ID once one exists.
    -- Not UNIQUE because multiple rows exist per attempt (one per transition).
    checkout_id     TEXT        NOT NULL,

    -- Lifecycle state at the time this row was written.
    status          TEXT        NOT NULL,

    -- Step that just executed (e.g. "payment_attempt", "order_write").
    step            TEXT        NOT NULL DEFAULT '',

    -- JSON submission that started the attempt. Written once on STARTED.
    payload         TEXT,

    -- JSON array of error strings accumulated on failure.
    error_messages  TEXT        NOT NULL DEFAULT '[]',

    -- W3C trace_id / span_id from the active OTel span.
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',

    -- RFC3339 stored as TEXT, the SQLite idiom.
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_logs_checkout_id ON checkout_logs(checkout_id, updated_at);

-- The reconciliation worklist: approved payments with no recorded order.
CREATE INDEX IF NOT EXISTS idx_checkout_logs_status ON checkout_logs(status);
`

// Repository is the SQLite implementation of checkoutlog.Repository.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and applies the
// schema. busy_timeout waits for locks instead of failing immediately.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply checkout log schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save inserts a new checkout log entry. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *checkoutlog.Entry) error {
	const q = `
		INSERT INTO checkout_logs
			(checkout_id, status, step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.CheckoutID,
		string(entry.Status),
		entry.Step,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save checkout log for %q: %w", entry.CheckoutID, err)
	}
	return nil
}

// Unrecorded returns the checkout IDs whose latest status is
// RECORDING_FAILED — approved payments that never got an order row.
func (r *Repository) Unrecorded(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT checkout_id
		FROM   checkout_logs
		WHERE  status = ?
		ORDER  BY checkout_id`

	rows, err := r.db.QueryContext(ctx, q, string(checkoutlog.StatusRecordingFailed))
	if err != nil {
		return nil, fmt.Errorf("sqlite: query unrecorded checkouts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan unrecorded checkout: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// nullableString returns nil for empty strings so SQLite stores NULL
// instead of empty TEXT on non-STARTED rows.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
