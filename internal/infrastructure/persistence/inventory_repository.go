package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMovementRepository implements inventory.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a ledger entry. The table has no update or delete path.
func (r *GormMovementRepository) Append(ctx context.Context, movement *inventory.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// FindByProduct returns a page of a product's ledger entries, newest first
func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[*inventory.InventoryMovement], error) {
	query := r.db.WithContext(ctx).
		Model(&inventory.InventoryMovement{}).
		Where("product_id = ?", productID)

	if reason, ok := filter.Filters["reason"]; ok {
		query = query.Where("reason = ?", reason)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var movements []*inventory.InventoryMovement
	if err := applyPagination(query, filter).Find(&movements).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(movements, total, filter.Page, filter.PageSize)
	return &page, nil
}

// SumDeltasByProduct sums all recorded deltas for a product
func (r *GormMovementRepository) SumDeltasByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var sum *int
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryMovement{}).
		Select("SUM(delta)").
		Where("product_id = ?", productID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// GormReservationRepository implements inventory.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by its ID
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryReservation, error) {
	var reservation inventory.InventoryReservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

// FindActiveByUser returns a user's active holds
func (r *GormReservationRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]*inventory.InventoryReservation, error) {
	var reservations []*inventory.InventoryReservation
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, inventory.ReservationActive).
		Order("created_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// FindActiveByUserAndProducts returns a user's active holds on the given products
func (r *GormReservationRepository) FindActiveByUserAndProducts(ctx context.Context, userID uuid.UUID, productIDs []uuid.UUID) ([]*inventory.InventoryReservation, error) {
	var reservations []*inventory.InventoryReservation
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id IN ? AND status = ?", userID, productIDs, inventory.ReservationActive).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// SumActiveByProduct sums active hold quantities for a product. Callers hold
// the product row lock, which serializes this read against other commits.
func (r *GormReservationRepository) SumActiveByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var sum *int
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryReservation{}).
		Select("SUM(quantity)").
		Where("product_id = ? AND status = ?", productID, inventory.ReservationActive).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// ExpireDue flips overdue active holds to expired in one statement
func (r *GormReservationRepository) ExpireDue(ctx context.Context, asOf time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryReservation{}).
		Where("status = ? AND expires_at < ?", inventory.ReservationActive, asOf).
		Updates(map[string]interface{}{
			"status":     inventory.ReservationExpired,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// Save persists a reservation
func (r *GormReservationRepository) Save(ctx context.Context, reservation *inventory.InventoryReservation) error {
	return r.db.WithContext(ctx).Save(reservation).Error
}
