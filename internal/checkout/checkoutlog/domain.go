// Package checkoutlog defines the domain types for the checkout audit log.
//
// The log is a durable trail of every transition a checkout attempt goes
// through. It exists for two reasons:
//
//  1. Observability: a row per transition, correlated with the distributed
//     trace via trace_id, shows exactly where an attempt is or was.
//
//  2. Reconciliation: the one correctness gap the flow knowingly carries —
//     payment approved but the order or its items failed to persist — is
//     invisible to the customer (they see a plain failure) but must never be
//     invisible to operations. That case gets its own status here, distinct
//     from an ordinary decline, so it can be queried and reconciled by hand.
package checkoutlog

import "time"

// Status is the lifecycle state of a checkout attempt at the moment the
// row was written.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusStepDone  Status = "STEP_DONE"
	StatusCompleted Status = "COMPLETED"

	// StatusDeclined is the ordinary negative outcome: the gateway said no
	// before any write happened.
	StatusDeclined Status = "DECLINED"

	// StatusFailed is a gateway or transport fault before approval.
	// No money moved and nothing was written.
	StatusFailed Status = "FAILED"

	// StatusRecordingFailed means the payment was approved but persisting
	// the order or its items failed afterwards. Money may have moved with
	// no matching order row — the rows with this status are the
	// reconciliation worklist.
	StatusRecordingFailed Status = "RECORDING_FAILED"
)

// Entry is a single row in the checkout_logs table, a point-in-time
// snapshot of one checkout attempt.
type Entry struct {
	// CheckoutID identifies the attempt. It is the order ID once one
	// exists, so the log can be joined with business data.
	CheckoutID string

	// Status is the lifecycle state.
	Status Status

	// Step names the step that just ran or failed,
	// e.g. "payment_attempt" or "order_write".
	Step string

	// Payload is the JSON-serialised submission that started the attempt,
	// stored once on STARTED so the attempt can be replayed from the log.
	Payload string

	// ErrorMessages is a JSON array of failure details, one per failed step.
	ErrorMessages string

	// TraceID is the W3C trace ID of the OpenTelemetry span active when
	// this row was written; jumps straight from the row to the full trace.
	TraceID string

	// SpanID pinpoints the exact span within the trace.
	SpanID string

	// UpdatedAt is the wall-clock time of this entry.
	UpdatedAt time.Time
}
