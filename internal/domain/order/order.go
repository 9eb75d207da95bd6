package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toystore/backend/internal/domain/shared"
	"github.com/toystore/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusPaid       OrderStatus = "paid"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// allowedTransitions is the single source of truth for the order state
// machine. Cancelled and refunded are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// PaymentMethod identifies how an order will be paid
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentPaypal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// IsValid returns true if the payment method is one of the supported kinds
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCreditCard, PaymentPaypal, PaymentCashOnDelivery:
		return true
	}
	return false
}

// SettlesOnDelivery reports whether payment is collected by the courier,
// skipping the gateway callback entirely
func (m PaymentMethod) SettlesOnDelivery() bool {
	return m == PaymentCashOnDelivery
}

// AllStatuses returns every lifecycle status in transition order
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending, StatusPaid, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded,
	}
}

// IsValid returns true if the status is one of the known lifecycle states
func (s OrderStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal returns true if no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo checks whether the state machine permits moving to target
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ReleasesStock reports whether entering this status returns the order's
// quantities to the saleable pool
func (s OrderStatus) ReleasesStock() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// Order is the aggregate root for customer orders. Item unit prices are
// snapshotted at creation time and never re-read from the catalog.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(30);not null"`
	ShippingAddress string          `gorm:"type:varchar(500);not null"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line on an order with the unit price frozen at order time
type OrderItem struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrder creates a pending order from snapshotted line items.
// The total is computed here from the lines, never taken from the caller.
func NewOrder(orderNumber string, userID uuid.UUID, shippingAddress string, paymentMethod PaymentMethod, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	if shippingAddress == "" {
		return nil, shared.NewDomainError("MISSING_SHIPPING_ADDRESS", "Shipping address is required")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD",
			fmt.Sprintf("Unknown payment method: %s", paymentMethod))
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		UserID:            userID,
		Status:            StatusPending,
		TotalAmount:       decimal.Zero,
		PaymentMethod:     paymentMethod,
		ShippingAddress:   shippingAddress,
	}

	total := valueobject.ZeroUSD()
	for i := range items {
		items[i].OrderID = order.ID
		subtotal := valueobject.NewMoneyUSD(items[i].UnitPrice).MultiplyByInt(int64(items[i].Quantity))
		items[i].Subtotal = subtotal.Amount()
		total = total.MustAdd(subtotal)
	}
	order.TotalAmount = total.Amount()
	order.Items = items

	order.AddDomainEvent(NewOrderCreatedEvent(order))
	return order, nil
}

// NewOrderItem snapshots a product line at the current unit price
func NewOrderItem(productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Order quantity must be positive")
	}

	return OrderItem{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Subtotal:    valueobject.NewMoneyUSD(unitPrice).MultiplyByInt(int64(quantity)).Amount(),
	}, nil
}

// TransitionTo moves the order to the target status, enforcing the state
// machine. The caller records history and handles stock restoration in the
// same transaction.
func (o *Order) TransitionTo(target OrderStatus, changedBy, reason string) (*OrderStatusHistory, error) {
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown order status: %s", target))
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, target))
	return NewOrderStatusHistory(o.ID, from, target, changedBy, reason), nil
}

// TotalQuantity returns the total number of units on the order
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
