// Package payment defines the narrow seam between the checkout flow and
// whatever collects the money. The checkout state machine only ever sees
// the Gateway interface, so the simulated M-Pesa implementation can be
// swapped for a real Daraja client without touching the machine.
package payment

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"
)

// Receipt is the outcome of a payment attempt. A decline is a normal
// negative outcome, not an error: Approved is false and err is nil.
type Receipt struct {
	Approved  bool
	Reference string
}

// Gateway charges a payer handle for an amount. Implementations must treat
// a decline as (Receipt{Approved: false}, nil) and reserve errors for
// transport or gateway faults.
type Gateway interface {
	Attempt(ctx context.Context, amount decimal.Decimal, payerHandle string) (Receipt, error)
}

// payerHandlePattern matches a Kenyan M-Pesa number: the 254 country code
// followed by nine digits, twelve digits total.
var payerHandlePattern = regexp.MustCompile(`^254[0-9]{9}$`)

// ValidPayerHandle reports whether handle has the shape the gateway accepts.
func ValidPayerHandle(handle string) bool {
	return payerHandlePattern.MatchString(handle)
}
