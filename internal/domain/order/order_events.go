package order

import "github.com/toystore/backend/internal/domain/shared"

// OrderCreatedEvent is raised when a pending order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

// NewOrderCreatedEvent creates an order created event
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("order.created", "Order", o.ID),
		OrderID:         o.ID.String(),
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID.String(),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		ItemCount:       len(o.Items),
	}
}

// OrderStatusChangedEvent is raised on every successful status transition
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	FromStatus  string `json:"from_status"`
	ToStatus    string `json:"to_status"`
}

// NewOrderStatusChangedEvent creates a status changed event
func NewOrderStatusChangedEvent(o *Order, from, to OrderStatus) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("order.status_changed", "Order", o.ID),
		OrderID:         o.ID.String(),
		OrderNumber:     o.OrderNumber,
		FromStatus:      string(from),
		ToStatus:        string(to),
	}
}
