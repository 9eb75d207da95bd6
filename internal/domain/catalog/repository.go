package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/shared"
)

// ProductRepository defines persistence operations for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	// FindByIDsForUpdate loads the given products with row locks held for the
	// duration of the enclosing transaction. Rows are locked in ascending ID
	// order so concurrent multi-product transactions cannot deadlock.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Product], error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}
