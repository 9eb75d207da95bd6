package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/shared"
)

// DefaultReservationTTL is how long a hold lasts when no TTL is configured
const DefaultReservationTTL = 15 * time.Minute

// ReservationService manages time-boxed stock holds. Holds never change the
// stock counter; they only shrink what availability checks will admit.
type ReservationService struct {
	scope TransactionScope
	ttl   time.Duration
}

// NewReservationService creates a new ReservationService
func NewReservationService(scope TransactionScope, ttl time.Duration) *ReservationService {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &ReservationService{scope: scope, ttl: ttl}
}

// Reserve places a hold for a user on a product. The availability check runs
// against the locked product row so two concurrent holds cannot both admit
// the last unit.
func (s *ReservationService) Reserve(ctx context.Context, userID uuid.UUID, req CreateReservationRequest) (*ReservationDTO, error) {
	var dto ReservationDTO
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		products, err := repos.ProductRepo().FindByIDsForUpdate(ctx, []uuid.UUID{req.ProductID})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return shared.ErrNotFound
		}
		product := products[0]

		if !product.IsActive {
			return shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("%s is no longer available", product.Name))
		}

		held, err := repos.ReservationRepo().SumActiveByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		available := product.Stock - held
		if req.Quantity > available {
			return shared.NewDomainError("INSUFFICIENT_AVAILABLE",
				fmt.Sprintf("%s has only %d units available after active holds", product.Name, available))
		}

		reservation, err := inventory.NewInventoryReservation(req.ProductID, userID, req.Quantity, s.ttl)
		if err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, reservation); err != nil {
			return err
		}

		dto = ToReservationDTO(reservation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Release ends a user's active hold early. The hold is marked expired; the
// stock counter was never touched.
func (s *ReservationService) Release(ctx context.Context, userID, reservationID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reservation, err := repos.ReservationRepo().FindByID(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.UserID != userID {
			return shared.ErrForbidden
		}
		if err := reservation.Expire(); err != nil {
			return err
		}
		return repos.ReservationRepo().Save(ctx, reservation)
	})
}

// ListActive returns a user's active holds
func (s *ReservationService) ListActive(ctx context.Context, userID uuid.UUID) ([]ReservationDTO, error) {
	var dtos []ReservationDTO
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		reservations, err := repos.ReservationRepo().FindActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		dtos = make([]ReservationDTO, 0, len(reservations))
		for _, r := range reservations {
			dtos = append(dtos, ToReservationDTO(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}

// ExpireSweep flips all overdue active holds to expired. Run periodically by
// the scheduler; returns how many holds were expired.
func (s *ReservationService) ExpireSweep(ctx context.Context) (int64, error) {
	var expired int64
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		n, err := repos.ReservationRepo().ExpireDue(ctx, time.Now())
		if err != nil {
			return err
		}
		expired = n
		return nil
	})
	return expired, err
}
