package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/shared"
)

// MovementRepository defines persistence for the append-only movement ledger
type MovementRepository interface {
	Append(ctx context.Context, movement *InventoryMovement) error
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*InventoryMovement], error)
	// SumDeltasByProduct returns the total signed delta recorded for a
	// product, used to reconcile the ledger against the stock counter.
	SumDeltasByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

// ReservationRepository defines persistence operations for reservations
type ReservationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryReservation, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]*InventoryReservation, error)
	FindActiveByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]*InventoryReservation, error)
	// SumActiveByProduct returns the quantity currently held by active
	// reservations on a product. Called under the product row lock so the
	// availability check cannot race with concurrent reservations.
	SumActiveByProduct(ctx context.Context, productID uuid.UUID) (int, error)
	// ExpireDue flips active reservations past their deadline to expired in a
	// single statement and returns how many rows changed.
	ExpireDue(ctx context.Context, asOf time.Time) (int64, error)
	Save(ctx context.Context, reservation *InventoryReservation) error
}
