package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository defines persistence operations for cart items
type CartRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*CartItem, error)
	Save(ctx context.Context, item *CartItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
