package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Ensure the simulator implements the gateway port at compile time.
var _ Gateway = (*Simulator)(nil)

// Simulator stands in for the real M-Pesa gateway: it sleeps for a fixed
// latency to mimic the STK-push round trip, then draws the outcome from a
// fixed approval rate.
type Simulator struct {
	latency      time.Duration
	approvalRate float64

	mu  sync.Mutex
	rng *rand.Rand

	// now is swappable in tests so references are deterministic.
	now func() time.Time
}

// NewSimulator builds a simulator with the given artificial latency and
// approval probability in [0,1]. The default production configuration is
// 2s latency and a 0.80 approval rate.
func NewSimulator(latency time.Duration, approvalRate float64) *Simulator {
	return &Simulator{
		latency:      latency,
		approvalRate: approvalRate,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
}

// Attempt waits out the simulated round trip, then approves with the
// configured probability. The sleep respects ctx so server shutdown does
// not hang on an in-flight simulation.
func (s *Simulator) Attempt(ctx context.Context, amount decimal.Decimal, payerHandle string) (Receipt, error) {
	if !ValidPayerHandle(payerHandle) {
		return Receipt{}, fmt.Errorf("payment: invalid payer handle %q", payerHandle)
	}

	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return Receipt{}, fmt.Errorf("payment: attempt aborted: %w", ctx.Err())
	}

	s.mu.Lock()
	approved := s.rng.Float64() < s.approvalRate
	s.mu.Unlock()

	if !approved {
		slog.InfoContext(ctx, "payment declined", "handle", payerHandle, "amount", amount.String())
		return Receipt{Approved: false}, nil
	}

	receipt := Receipt{
		Approved:  true,
		Reference: fmt.Sprintf("MPESA%d", s.now().UnixMilli()),
	}
	slog.InfoContext(ctx, "payment approved", "handle", payerHandle, "amount", amount.String(), "reference", receipt.Reference)
	return receipt, nil
}
