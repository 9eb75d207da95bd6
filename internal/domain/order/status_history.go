package order

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusHistory is an append-only record of one status transition.
// Rows are never updated or deleted after insertion.
type OrderStatusHistory struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID   `gorm:"type:uuid;not null;index"`
	FromStatus OrderStatus `gorm:"type:varchar(20);not null"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null"`
	ChangedBy  string      `gorm:"type:varchar(100);not null"`
	Reason     string      `gorm:"type:varchar(500)"`
	ChangedAt  time.Time   `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

// NewOrderStatusHistory creates a transition record
func NewOrderStatusHistory(orderID uuid.UUID, from, to OrderStatus, changedBy, reason string) *OrderStatusHistory {
	return &OrderStatusHistory{
		ID:         uuid.New(),
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Reason:     reason,
		ChangedAt:  time.Now(),
	}
}
