package checkoutlog

import "context"

// Repository is the port for persisting checkout log entries. The state
// machine depends on this abstraction, not on SQLite, so tests use an
// in-memory recorder and production can move to Postgres untouched.
type Repository interface {
	// Save appends a new row. The table is an append-only audit log,
	// never an upsert.
	Save(ctx context.Context, entry *Entry) error
}
