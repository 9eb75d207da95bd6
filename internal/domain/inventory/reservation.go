package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/shared"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationExpired  ReservationStatus = "expired"
	ReservationConsumed ReservationStatus = "consumed"
)

// InventoryReservation is a time-boxed soft hold on product quantity.
// Reservations never mutate the stock counter; they reduce the quantity
// considered available when new reservations or orders are checked.
type InventoryReservation struct {
	shared.BaseEntity
	ProductID uuid.UUID         `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Quantity  int               `gorm:"not null"`
	Status    ReservationStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	ExpiresAt time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (InventoryReservation) TableName() string {
	return "inventory_reservations"
}

// NewInventoryReservation creates an active reservation expiring after ttl
func NewInventoryReservation(productID, userID uuid.UUID, quantity int, ttl time.Duration) (*InventoryReservation, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_TTL", "Reservation TTL must be positive")
	}

	return &InventoryReservation{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		UserID:     userID,
		Quantity:   quantity,
		Status:     ReservationActive,
		ExpiresAt:  time.Now().Add(ttl),
	}, nil
}

// IsActive returns true if the reservation currently holds quantity
func (r *InventoryReservation) IsActive() bool {
	return r.Status == ReservationActive
}

// IsExpiredAt returns true if an active reservation has passed its deadline
func (r *InventoryReservation) IsExpiredAt(now time.Time) bool {
	return r.Status == ReservationActive && now.After(r.ExpiresAt)
}

// Expire marks an active reservation expired. Stock is untouched because the
// hold never decremented it.
func (r *InventoryReservation) Expire() error {
	if r.Status != ReservationActive {
		return shared.NewDomainError("INVALID_STATE", "Only active reservations can expire")
	}
	r.Status = ReservationExpired
	r.UpdatedAt = time.Now()
	return nil
}

// Consume marks the reservation consumed when its quantity is converted into
// an order line
func (r *InventoryReservation) Consume() error {
	if r.Status != ReservationActive {
		return shared.NewDomainError("INVALID_STATE", "Only active reservations can be consumed")
	}
	r.Status = ReservationConsumed
	r.UpdatedAt = time.Now()
	return nil
}
