package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/shared"
)

// MovementReason classifies why stock moved
type MovementReason string

const (
	ReasonOrderPlaced      MovementReason = "order_placed"
	ReasonOrderCancelled   MovementReason = "order_cancelled"
	ReasonOrderRefunded    MovementReason = "order_refunded"
	ReasonRestock          MovementReason = "restock"
	ReasonManualAdjustment MovementReason = "manual_adjustment"
)

// IsValid returns true for known movement reasons
func (r MovementReason) IsValid() bool {
	switch r {
	case ReasonOrderPlaced, ReasonOrderCancelled, ReasonOrderRefunded, ReasonRestock, ReasonManualAdjustment:
		return true
	}
	return false
}

// InventoryMovement is one append-only ledger entry. Summing Delta over a
// product's movements and adding them to its initial stock reproduces the
// current stock counter exactly.
type InventoryMovement struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Delta       int            `gorm:"not null"`
	Reason      MovementReason `gorm:"type:varchar(30);not null;index"`
	ReferenceID *uuid.UUID     `gorm:"type:uuid;index"`
	StockAfter  int            `gorm:"not null"`
	CreatedAt   time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InventoryMovement) TableName() string {
	return "inventory_movements"
}

// NewInventoryMovement creates a ledger entry recording a signed stock delta
// and the resulting stock level captured under the product row lock
func NewInventoryMovement(productID uuid.UUID, delta int, reason MovementReason, referenceID *uuid.UUID, stockAfter int) (*InventoryMovement, error) {
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement delta cannot be zero")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Unknown inventory movement reason")
	}

	return &InventoryMovement{
		ID:          uuid.New(),
		ProductID:   productID,
		Delta:       delta,
		Reason:      reason,
		ReferenceID: referenceID,
		StockAfter:  stockAfter,
		CreatedAt:   time.Now(),
	}, nil
}
