package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/shared"
)

// OrderRepository defines persistence operations for orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[*Order], error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*Order], error)
	CountByStatus(ctx context.Context) (map[OrderStatus]int64, error)
	Save(ctx context.Context, order *Order) error
}

// StatusHistoryRepository defines persistence for the append-only transition log
type StatusHistoryRepository interface {
	Append(ctx context.Context, history *OrderStatusHistory) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*OrderStatusHistory, error)
}
