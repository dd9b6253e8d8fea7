package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukahq/storefront/internal/core/domain/entity"
)

func product(id string, price int64) entity.Product {
	return entity.Product{ID: id, Name: "drink-" + id, UnitPrice: decimal.NewFromInt(price)}
}

func TestAddMergesExistingLine(t *testing.T) {
	s := NewStore()
	s.Add(product("p1", 50), 2)
	s.Add(product("p1", 50), 3)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, s.TotalItems())
	assert.True(t, s.TotalAmount().Equal(decimal.NewFromInt(250)))
}

func TestAddIgnoresNonPositiveQuantity(t *testing.T) {
	s := NewStore()
	s.Add(product("p1", 50), 0)
	s.Add(product("p1", 50), -4)

	assert.True(t, s.IsEmpty())
}

func TestUpdateQuantitySetsExactValue(t *testing.T) {
	s := NewStore()
	s.Add(product("p1", 50), 2)
	s.UpdateQuantity("p1", 7)

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 7, lines[0].Quantity)
}

func TestUpdateQuantityZeroOrNegativeRemovesLine(t *testing.T) {
	for _, qty := range []int{0, -1} {
		s := NewStore()
		s.Add(product("p1", 50), 2)
		s.UpdateQuantity("p1", qty)
		assert.True(t, s.IsEmpty(), "quantity %d should remove the line", qty)
	}
}

func TestUpdateQuantityUnknownProductIsNoop(t *testing.T) {
	s := NewStore()
	s.UpdateQuantity("missing", 3)
	assert.True(t, s.IsEmpty())
}

func TestRemoveAndClear(t *testing.T) {
	branch := &entity.Branch{ID: "b1", DisplayName: "Nairobi"}

	s := NewStore()
	s.SetBranch(branch)
	s.Add(product("p1", 50), 1)
	s.Add(product("p2", 50), 2)

	s.Remove("p1")
	require.Len(t, s.Lines(), 1)

	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, branch, s.Branch(), "clear keeps the selected branch")
}

func TestSetBranchKeepsLines(t *testing.T) {
	s := NewStore()
	s.SetBranch(&entity.Branch{ID: "b1"})
	s.Add(product("p1", 50), 2)

	s.SetBranch(&entity.Branch{ID: "b2"})

	assert.Len(t, s.Lines(), 1, "switching branch does not clear the cart")
	assert.Equal(t, "b2", s.Branch().ID)
}

func TestLinesAreOrderedAndCopied(t *testing.T) {
	s := NewStore()
	s.Add(product("p2", 50), 1)
	s.Add(product("p1", 50), 1)

	lines := s.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].Product.ID)
	assert.Equal(t, "p2", lines[1].Product.ID)

	// Mutating the returned slice must not leak into the store.
	lines[0].Quantity = 99
	assert.Equal(t, 1, s.Lines()[0].Quantity)
}

func TestTotalAmountRecomputes(t *testing.T) {
	s := NewStore()
	s.Add(product("p1", 50), 2)
	assert.True(t, s.TotalAmount().Equal(decimal.NewFromInt(100)))

	s.UpdateQuantity("p1", 1)
	assert.True(t, s.TotalAmount().Equal(decimal.NewFromInt(50)))
}

func TestRegistryHandsOutOneStorePerSession(t *testing.T) {
	r := NewRegistry()

	first := r.For("user-1")
	second := r.For("user-1")
	other := r.For("user-2")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)

	r.Drop("user-1")
	assert.NotSame(t, first, r.For("user-1"))
}
