package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/shared"
)

// StockLedgerService owns all stock mutations. Every change to a product's
// stock counter goes through here so a matching ledger entry is always
// written in the same transaction.
type StockLedgerService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(scope TransactionScope) *StockLedgerService {
	return &StockLedgerService{scope: scope}
}

// SetEventPublisher sets the publisher for product stock events
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *StockLedgerService) publishProductEvents(ctx context.Context, products ...*catalog.Product) {
	if s.eventPublisher == nil {
		return
	}
	for _, p := range products {
		events := p.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		// event delivery is best effort and never fails the transaction
		_ = s.eventPublisher.Publish(ctx, events...)
		p.ClearDomainEvents()
	}
}

// LockProducts loads the products for the given lines with row locks held,
// always in ascending ID order so concurrent commits cannot deadlock. The
// locks persist until the enclosing transaction ends.
func (s *StockLedgerService) LockProducts(ctx context.Context, repos TransactionalRepositories, lines []StockLine) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	products, err := repos.ProductRepo().FindByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Product %s not found", line.ProductID))
		}
	}
	return byID, nil
}

// CommitForOrder deducts stock for every line of a new order and appends one
// order_placed ledger entry per product. The products map must come from
// LockProducts in the same transaction so the rows are still locked here.
// Active reservations held by other users count against availability; the
// purchaser's own active reservations on these products are consumed.
func (s *StockLedgerService) CommitForOrder(ctx context.Context, repos TransactionalRepositories, userID, orderID uuid.UUID, lines []StockLine, products map[uuid.UUID]*catalog.Product) error {
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	ownReservations, err := repos.ReservationRepo().FindActiveByUserAndProducts(ctx, userID, productIDs)
	if err != nil {
		return err
	}
	ownHeld := make(map[uuid.UUID]int)
	for _, r := range ownReservations {
		ownHeld[r.ProductID] += r.Quantity
	}

	for _, line := range lines {
		product := products[line.ProductID]

		held, err := repos.ReservationRepo().SumActiveByProduct(ctx, line.ProductID)
		if err != nil {
			return err
		}
		available := product.Stock - (held - ownHeld[line.ProductID])
		if line.Quantity > available && line.Quantity <= product.Stock {
			return shared.NewDomainError("INSUFFICIENT_AVAILABLE",
				fmt.Sprintf("%s has only %d units available after active holds", product.Name, available))
		}

		if err := product.DeductStock(line.Quantity); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}

		movement, err := inventory.NewInventoryMovement(line.ProductID, -line.Quantity, inventory.ReasonOrderPlaced, &orderID, product.Stock)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}
	}

	// The purchaser's holds did their job; mark them consumed.
	for _, r := range ownReservations {
		if err := r.Consume(); err != nil {
			return err
		}
		if err := repos.ReservationRepo().Save(ctx, r); err != nil {
			return err
		}
	}

	for _, line := range lines {
		s.publishProductEvents(ctx, products[line.ProductID])
	}
	return nil
}

// ReleaseForOrder returns an order's quantities to the saleable pool with a
// compensating ledger entry per product. Used when an order is cancelled or
// refunded, in the same transaction as the status transition.
func (s *StockLedgerService) ReleaseForOrder(ctx context.Context, repos TransactionalRepositories, orderID uuid.UUID, lines []StockLine, reason inventory.MovementReason) error {
	products, err := s.LockProducts(ctx, repos, lines)
	if err != nil {
		return err
	}

	for _, line := range lines {
		product := products[line.ProductID]
		if err := product.RestoreStock(line.Quantity); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}

		movement, err := inventory.NewInventoryMovement(line.ProductID, line.Quantity, reason, &orderID, product.Stock)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}
		s.publishProductEvents(ctx, product)
	}

	return nil
}

// AdjustStock applies a manual signed adjustment to one product in its own
// transaction, with the matching ledger entry.
func (s *StockLedgerService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*MovementDTO, error) {
	reason := inventory.MovementReason(req.Reason)
	if reason != inventory.ReasonRestock && reason != inventory.ReasonManualAdjustment {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason must be restock or manual_adjustment")
	}

	var dto MovementDTO
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		products, err := repos.ProductRepo().FindByIDsForUpdate(ctx, []uuid.UUID{req.ProductID})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return shared.ErrNotFound
		}
		product := products[0]

		// Negative adjustments must not eat into active holds. Dropping
		// below zero is reported as plain insufficient stock instead.
		if req.Delta < 0 && product.Stock+req.Delta >= 0 {
			held, err := repos.ReservationRepo().SumActiveByProduct(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if product.Stock+req.Delta < held {
				return shared.NewDomainError("INSUFFICIENT_AVAILABLE",
					fmt.Sprintf("%s has %d units on active holds; stock cannot drop below that", product.Name, held))
			}
		}

		if err := product.ApplyStockDelta(req.Delta); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}

		movement, err := inventory.NewInventoryMovement(req.ProductID, req.Delta, reason, nil, product.Stock)
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}
		s.publishProductEvents(ctx, product)

		dto = ToMovementDTO(movement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// RecordInitialStock writes the opening ledger entry for a newly created
// product so that replaying the ledger from zero reproduces current stock.
func (s *StockLedgerService) RecordInitialStock(ctx context.Context, repos TransactionalRepositories, product *catalog.Product) error {
	if product.Stock == 0 {
		return nil
	}
	movement, err := inventory.NewInventoryMovement(product.ID, product.Stock, inventory.ReasonRestock, nil, product.Stock)
	if err != nil {
		return err
	}
	return repos.MovementRepo().Append(ctx, movement)
}

// ListMovements returns the ledger entries for one product
func (s *StockLedgerService) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[MovementDTO], error) {
	var page *shared.Paginated[MovementDTO]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.MovementRepo().FindByProduct(ctx, productID, filter)
		if err != nil {
			return err
		}
		page = ToMovementDTOs(movements)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Reconcile replays the ledger for one product and compares the summed
// deltas with the live stock counter. The two agree unless something bypassed
// the ledger.
func (s *StockLedgerService) Reconcile(ctx context.Context, productID uuid.UUID) (*ReconciliationResult, error) {
	var result *ReconciliationResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		products, err := repos.ProductRepo().FindByIDsForUpdate(ctx, []uuid.UUID{productID})
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return shared.ErrNotFound
		}
		product := products[0]

		sum, err := repos.MovementRepo().SumDeltasByProduct(ctx, productID)
		if err != nil {
			return err
		}

		result = &ReconciliationResult{
			ProductID:  productID,
			Stock:      product.Stock,
			LedgerSum:  sum,
			Consistent: sum == product.Stock,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
