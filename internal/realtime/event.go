// Package realtime is the change-notification feed: writers publish
// row-change events, views subscribe to a table (optionally filtered by
// branch) and re-read on delivery. The feed is advisory only — it triggers
// re-reads and pushes stock quantities into the catalog read model, but it
// never touches the checkout machine.
package realtime

import "context"

// Action mirrors the row operations of the backing store.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Table names for the feeds the views care about.
const (
	TableStock      = "stock"
	TableOrders     = "orders"
	TableOrderItems = "order_items"
)

// Event is one row change. Only the fields relevant to the table are set.
type Event struct {
	Table     string `json:"table"`
	Action    Action `json:"action"`
	BranchID  string `json:"branch_id,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

// Publisher is the outbound port: anything that can fan an event out.
// The in-process Hub implements it, and so does the Redis adapter, so a
// multi-instance deployment swaps one in without touching the writers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
