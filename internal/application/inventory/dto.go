package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/shared"
)

// StockLine is one product quantity participating in a stock operation
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// AdjustStockRequest is the input for a manual stock adjustment
type AdjustStockRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Delta     int       `json:"delta" binding:"required"`
	Reason    string    `json:"reason" binding:"required,oneof=restock manual_adjustment"`
}

// CreateReservationRequest is the input for placing a stock hold
type CreateReservationRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// ReservationDTO is the API representation of a reservation
type ReservationDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ToReservationDTO converts a domain reservation to its DTO
func ToReservationDTO(r *inventory.InventoryReservation) ReservationDTO {
	return ReservationDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Quantity:  r.Quantity,
		Status:    string(r.Status),
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

// MovementDTO is the API representation of a ledger entry
type MovementDTO struct {
	ID          uuid.UUID  `json:"id"`
	ProductID   uuid.UUID  `json:"product_id"`
	Delta       int        `json:"delta"`
	Reason      string     `json:"reason"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	StockAfter  int        `json:"stock_after"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToMovementDTO converts a domain movement to its DTO
func ToMovementDTO(m *inventory.InventoryMovement) MovementDTO {
	return MovementDTO{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Delta:       m.Delta,
		Reason:      string(m.Reason),
		ReferenceID: m.ReferenceID,
		StockAfter:  m.StockAfter,
		CreatedAt:   m.CreatedAt,
	}
}

// ToMovementDTOs converts a paginated set of movements
func ToMovementDTOs(page *shared.Paginated[*inventory.InventoryMovement]) *shared.Paginated[MovementDTO] {
	items := make([]MovementDTO, 0, len(page.Items))
	for _, m := range page.Items {
		items = append(items, ToMovementDTO(m))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result
}

// ReconciliationResult reports whether the movement ledger agrees with the
// stock counter for one product
type ReconciliationResult struct {
	ProductID  uuid.UUID `json:"product_id"`
	Stock      int       `json:"stock"`
	LedgerSum  int       `json:"ledger_sum"`
	Consistent bool      `json:"consistent"`
}
