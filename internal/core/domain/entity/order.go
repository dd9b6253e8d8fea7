package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state persisted on an order row.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Order is written once by the checkout flow after an approved payment
// and is immutable afterwards.
type Order struct {
	ID               string
	CustomerID       string
	BranchID         string
	TotalAmount      decimal.Decimal
	PaymentStatus    PaymentStatus
	PaymentReference string
	CreatedAt        time.Time
}

// OrderItem captures the unit price and subtotal at the time of purchase.
// The snapshot is deliberate: a later product price change must not alter
// historical orders.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}
