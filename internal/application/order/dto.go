package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toystore/backend/internal/domain/order"
	"github.com/toystore/backend/internal/domain/shared"
)

// OrderItemDTO is the API representation of one order line
type OrderItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the API representation of an order
type OrderDTO struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          uuid.UUID       `json:"user_id"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderItemDTO  `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateOrderRequest is the checkout payload. Line items come from the
// caller's cart, never from the request body.
type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required,max=500"`
	PaymentMethod   string `json:"payment_method" binding:"required,oneof=credit_card paypal cash_on_delivery"`
}

// ToOrderDTO converts a domain order to its DTO
func ToOrderDTO(o *order.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		PaymentMethod:   string(o.PaymentMethod),
		ShippingAddress: o.ShippingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ToOrderDTOs converts a paginated set of orders
func ToOrderDTOs(page *shared.Paginated[*order.Order]) *shared.Paginated[OrderDTO] {
	items := make([]OrderDTO, 0, len(page.Items))
	for _, o := range page.Items {
		items = append(items, ToOrderDTO(o))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result
}

// StatusHistoryDTO is one entry from the append-only transition log
type StatusHistoryDTO struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  string    `json:"changed_by"`
	Reason     string    `json:"reason,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// ToStatusHistoryDTO converts a history record to its DTO
func ToStatusHistoryDTO(h *order.OrderStatusHistory) StatusHistoryDTO {
	return StatusHistoryDTO{
		ID:         h.ID,
		OrderID:    h.OrderID,
		FromStatus: string(h.FromStatus),
		ToStatus:   string(h.ToStatus),
		ChangedBy:  h.ChangedBy,
		Reason:     h.Reason,
		ChangedAt:  h.ChangedAt,
	}
}

// TransitionRequest is the input for an explicit status transition
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

// PaymentResultRequest is the payload delivered by the payment gateway
// callback. Reference deduplicates retried deliveries.
type PaymentResultRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	Reference   string `json:"reference" binding:"required"`
	Success     bool   `json:"success"`
	Reason      string `json:"reason" binding:"max=500"`
}
