package restock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahq/storefront/internal/core/domain/entity"
	"github.com/dukahq/storefront/internal/realtime"
)

type memoryStock struct {
	mu         sync.Mutex
	quantities map[string]int

	// beforeWrite, when set, runs between the snapshot read and the write.
	// It lets a test interleave a competing restock deterministically.
	beforeWrite func()
}

func key(branchID, productID string) string { return branchID + "/" + productID }

func newMemoryStock() *memoryStock {
	return &memoryStock{quantities: make(map[string]int)}
}

func (s *memoryStock) Quantity(ctx context.Context, branchID, productID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quantities[key(branchID, productID)], nil
}

func (s *memoryStock) SetQuantity(ctx context.Context, branchID, productID string, quantity int) error {
	if s.beforeWrite != nil {
		hook := s.beforeWrite
		s.beforeWrite = nil
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantities[key(branchID, productID)] = quantity
	return nil
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []entity.RestockLog
}

func (a *memoryAudit) AppendRestock(ctx context.Context, log entity.RestockLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type staticNames struct{}

func (staticNames) GetBranch(ctx context.Context, id string) (entity.Branch, error) {
	return entity.Branch{ID: id, DisplayName: "Nairobi CBD"}, nil
}

func (staticNames) GetProduct(ctx context.Context, id string) (entity.Product, error) {
	return entity.Product{ID: id, Name: "Cola"}, nil
}

func TestRestockRejectsNonPositiveDelta(t *testing.T) {
	stock := newMemoryStock()
	audit := &memoryAudit{}
	svc := NewService(stock, audit, staticNames{}, nil)

	for _, delta := range []int{0, -5} {
		_, err := svc.Restock(context.Background(), "admin", "b1", "p1", delta)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, audit.logs)
}

func TestRestockAddsToCurrentAndLogs(t *testing.T) {
	stock := newMemoryStock()
	stock.quantities[key("b1", "p1")] = 7
	audit := &memoryAudit{}
	svc := NewService(stock, audit, staticNames{}, nil)

	result, err := svc.Restock(context.Background(), "admin", "b1", "p1", 5)
	require.NoError(t, err)

	assert.Equal(t, 12, result.NewQuantity)
	assert.Equal(t, 5, result.Added)
	assert.Equal(t, "Nairobi CBD", result.BranchName)
	assert.Equal(t, "Cola", result.ProductName)
	assert.Equal(t, 12, stock.quantities[key("b1", "p1")])

	require.Len(t, audit.logs, 1)
	log := audit.logs[0]
	assert.Equal(t, "admin", log.AdminID)
	assert.Equal(t, 5, log.Quantity, "the log records the delta, not the new total")
	assert.NotEmpty(t, log.ID)
}

func TestRestockStartsFromZeroForNewPair(t *testing.T) {
	svc := NewService(newMemoryStock(), &memoryAudit{}, staticNames{}, nil)

	result, err := svc.Restock(context.Background(), "admin", "b1", "p9", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, result.NewQuantity)
}

func TestRestockPublishesStockEvent(t *testing.T) {
	hub := realtime.NewHub()
	events, cancel := hub.Subscribe(realtime.TableStock, "", 4)
	defer cancel()

	svc := NewService(newMemoryStock(), &memoryAudit{}, staticNames{}, hub)

	_, err := svc.Restock(context.Background(), "admin", "b1", "p1", 4)
	require.NoError(t, err)

	event := <-events
	assert.Equal(t, realtime.TableStock, event.Table)
	assert.Equal(t, realtime.ActionUpdate, event.Action)
	assert.Equal(t, "b1", event.BranchID)
	assert.Equal(t, "p1", event.ProductID)
	assert.Equal(t, 4, event.Quantity)
}

// TestConcurrentRestocksLoseUpdates pins down the known lost-update window:
// the flow reads a snapshot and writes snapshot+delta with no isolation, so
// a competing restock landing between the two is overwritten.
func TestConcurrentRestocksLoseUpdates(t *testing.T) {
	stock := newMemoryStock()
	stock.quantities[key("b1", "p1")] = 10
	audit := &memoryAudit{}
	svc := NewService(stock, audit, staticNames{}, nil)

	stock.beforeWrite = func() {
		// A second admin restocks the same pair after the first snapshot
		// was taken but before its write lands.
		_, err := svc.Restock(context.Background(), "admin-2", "b1", "p1", 100)
		require.NoError(t, err)
	}

	result, err := svc.Restock(context.Background(), "admin-1", "b1", "p1", 5)
	require.NoError(t, err)

	// Last write wins on the stale snapshot: 10+5, not 10+100+5.
	assert.Equal(t, 15, result.NewQuantity)
	assert.Equal(t, 15, stock.quantities[key("b1", "p1")])

	// Both actions were audited even though one write was lost.
	assert.Len(t, audit.logs, 2)
}
