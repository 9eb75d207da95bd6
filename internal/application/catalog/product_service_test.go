package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appinventory "github.com/toystore/backend/internal/application/inventory"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/shared"
)

type mockProductRepo struct {
	mock.Mock
}

func (m *mockProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepo) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *mockProductRepo) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

func (m *mockProductRepo) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*catalog.Product], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*catalog.Product]), args.Error(1)
}

func (m *mockProductRepo) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockMovementRepo struct {
	mock.Mock
}

func (m *mockMovementRepo) Append(ctx context.Context, movement *inventory.InventoryMovement) error {
	return m.Called(ctx, movement).Error(0)
}

func (m *mockMovementRepo) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*inventory.InventoryMovement], error) {
	args := m.Called(ctx, productID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*inventory.InventoryMovement]), args.Error(1)
}

func (m *mockMovementRepo) SumDeltasByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

func newService() (*ProductService, *mockProductRepo, *mockMovementRepo) {
	productRepo := new(mockProductRepo)
	movementRepo := new(mockMovementRepo)
	scope := appinventory.NewNoOpTransactionScope(productRepo, nil, nil, nil, movementRepo, nil)
	ledger := appinventory.NewStockLedgerService(scope)
	return NewProductService(scope, ledger), productRepo, movementRepo
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("writes opening ledger entry for initial stock", func(t *testing.T) {
		svc, productRepo, movementRepo := newService()

		productRepo.On("FindBySKU", ctx, "TOY-TRAIN-001").Return(nil, shared.ErrNotFound)
		productRepo.On("Save", ctx, mock.Anything).Return(nil)
		movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.InventoryMovement) bool {
			return m.Delta == 12 && m.Reason == inventory.ReasonRestock && m.StockAfter == 12
		})).Return(nil)

		dto, err := svc.CreateProduct(ctx, CreateProductRequest{
			Name:         "Wooden Train Set",
			SKU:          "TOY-TRAIN-001",
			Price:        decimal.NewFromFloat(29.99),
			InitialStock: 12,
		})
		require.NoError(t, err)

		assert.Equal(t, 12, dto.Stock)
		assert.True(t, dto.IsActive)
		movementRepo.AssertExpectations(t)
	})

	t.Run("skips ledger entry for zero initial stock", func(t *testing.T) {
		svc, productRepo, movementRepo := newService()

		productRepo.On("FindBySKU", ctx, "TOY-BEAR-001").Return(nil, shared.ErrNotFound)
		productRepo.On("Save", ctx, mock.Anything).Return(nil)

		_, err := svc.CreateProduct(ctx, CreateProductRequest{
			Name:  "Plush Bear",
			SKU:   "TOY-BEAR-001",
			Price: decimal.NewFromFloat(14.50),
		})
		require.NoError(t, err)
		movementRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("rejects duplicate SKU", func(t *testing.T) {
		svc, productRepo, _ := newService()
		existing, err := catalog.NewProduct("Wooden Train Set", "TOY-TRAIN-001", decimal.NewFromFloat(29.99), 5)
		require.NoError(t, err)

		productRepo.On("FindBySKU", ctx, "TOY-TRAIN-001").Return(existing, nil)

		_, err = svc.CreateProduct(ctx, CreateProductRequest{
			Name:  "Another Train",
			SKU:   "TOY-TRAIN-001",
			Price: decimal.NewFromFloat(9.99),
		})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("applies partial updates", func(t *testing.T) {
		svc, productRepo, _ := newService()
		product, err := catalog.NewProduct("Wooden Train Set", "TOY-TRAIN-001", decimal.NewFromFloat(29.99), 5)
		require.NoError(t, err)

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		productRepo.On("Save", ctx, product).Return(nil)

		newPrice := decimal.NewFromFloat(34.99)
		inactive := false
		dto, err := svc.UpdateProduct(ctx, product.ID, UpdateProductRequest{
			Price:    &newPrice,
			IsActive: &inactive,
		})
		require.NoError(t, err)

		assert.True(t, dto.Price.Equal(newPrice))
		assert.False(t, dto.IsActive)
		assert.Equal(t, 5, dto.Stock)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		svc, productRepo, _ := newService()
		product, err := catalog.NewProduct("Wooden Train Set", "TOY-TRAIN-001", decimal.NewFromFloat(29.99), 5)
		require.NoError(t, err)

		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		empty := ""
		_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductRequest{Name: &empty})
		assert.Error(t, err)
	})
}
