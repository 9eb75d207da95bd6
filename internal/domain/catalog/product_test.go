package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toystore/backend/internal/domain/shared"
)

func newTestProduct(t *testing.T, stock int) *Product {
	t.Helper()
	p, err := NewProduct("Wooden Train Set", "TOY-TRAIN-001", decimal.NewFromFloat(29.99), stock)
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	t.Run("creates active product", func(t *testing.T) {
		p := newTestProduct(t, 10)
		assert.True(t, p.IsActive)
		assert.Equal(t, 10, p.Stock)
		assert.Equal(t, 1, p.Version)
	})

	t.Run("rejects invalid inputs", func(t *testing.T) {
		_, err := NewProduct("", "SKU", decimal.NewFromInt(1), 0)
		assert.Error(t, err)

		_, err = NewProduct("Name", "", decimal.NewFromInt(1), 0)
		assert.Error(t, err)

		_, err = NewProduct("Name", "SKU", decimal.Zero, 0)
		assert.Error(t, err)

		_, err = NewProduct("Name", "SKU", decimal.NewFromInt(1), -1)
		assert.Error(t, err)
	})
}

func TestProductDeductStock(t *testing.T) {
	t.Run("deducts and raises event", func(t *testing.T) {
		p := newTestProduct(t, 10)

		err := p.DeductStock(3)
		require.NoError(t, err)

		assert.Equal(t, 7, p.Stock)
		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "product.stock_changed", events[0].EventType())
	})

	t.Run("rejects deduction beyond stock", func(t *testing.T) {
		p := newTestProduct(t, 2)

		err := p.DeductStock(3)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		assert.Equal(t, 2, p.Stock)
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		p := newTestProduct(t, 10)
		p.Deactivate()

		err := p.DeductStock(1)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PRODUCT_INACTIVE", domainErr.Code)
	})

	t.Run("allows deducting exactly the remaining stock", func(t *testing.T) {
		p := newTestProduct(t, 5)
		require.NoError(t, p.DeductStock(5))
		assert.Equal(t, 0, p.Stock)
	})
}

func TestProductRestoreStock(t *testing.T) {
	p := newTestProduct(t, 0)
	require.NoError(t, p.RestoreStock(4))
	assert.Equal(t, 4, p.Stock)

	assert.Error(t, p.RestoreStock(0))
	assert.Error(t, p.RestoreStock(-2))
}

func TestProductApplyStockDelta(t *testing.T) {
	t.Run("applies positive and negative deltas", func(t *testing.T) {
		p := newTestProduct(t, 5)
		require.NoError(t, p.ApplyStockDelta(10))
		assert.Equal(t, 15, p.Stock)

		require.NoError(t, p.ApplyStockDelta(-4))
		assert.Equal(t, 11, p.Stock)
	})

	t.Run("rejects delta that would go negative", func(t *testing.T) {
		p := newTestProduct(t, 3)
		err := p.ApplyStockDelta(-4)
		require.Error(t, err)
		assert.Equal(t, 3, p.Stock)
	})

	t.Run("rejects zero delta", func(t *testing.T) {
		p := newTestProduct(t, 3)
		assert.Error(t, p.ApplyStockDelta(0))
	})
}

func TestProductChangePrice(t *testing.T) {
	p := newTestProduct(t, 1)
	require.NoError(t, p.ChangePrice(decimal.NewFromFloat(34.99)))
	assert.True(t, p.Price.Equal(decimal.NewFromFloat(34.99)))

	assert.Error(t, p.ChangePrice(decimal.Zero))
}

func TestProductCanFulfill(t *testing.T) {
	p := newTestProduct(t, 5)
	assert.True(t, p.CanFulfill(5))
	assert.False(t, p.CanFulfill(6))

	p.Deactivate()
	assert.False(t, p.CanFulfill(1))
}
