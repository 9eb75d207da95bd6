package inventory

import (
	"context"

	"github.com/toystore/backend/internal/domain/cart"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the repositories that
// participate in stock-moving operations. When a function is executed within
// a scope, all repository operations share one database transaction and are
// committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories scoped to the
// current transaction. Product row locks taken through ProductRepo hold until
// the transaction ends, which is what makes the availability checks safe.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.OrderRepository
	// HistoryRepo returns the status history repository scoped to the current transaction
	HistoryRepo() order.StatusHistoryRepository
	// CartRepo returns the cart repository scoped to the current transaction
	CartRepo() cart.CartRepository
	// MovementRepo returns the movement ledger repository scoped to the current transaction
	MovementRepo() inventory.MovementRepository
	// ReservationRepo returns the reservation repository scoped to the current transaction
	ReservationRepo() inventory.ReservationRepository
}

// NoOpTransactionScope runs functions without a real transaction. Useful in
// tests where repositories are mocks.
type NoOpTransactionScope struct {
	productRepo     catalog.ProductRepository
	orderRepo       order.OrderRepository
	historyRepo     order.StatusHistoryRepository
	cartRepo        cart.CartRepository
	movementRepo    inventory.MovementRepository
	reservationRepo inventory.ReservationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	orderRepo order.OrderRepository,
	historyRepo order.StatusHistoryRepository,
	cartRepo cart.CartRepository,
	movementRepo inventory.MovementRepository,
	reservationRepo inventory.ReservationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:     productRepo,
		orderRepo:       orderRepo,
		historyRepo:     historyRepo,
		cartRepo:        cartRepo,
		movementRepo:    movementRepo,
		reservationRepo: reservationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() order.OrderRepository {
	return s.orderRepo
}

// HistoryRepo returns the status history repository.
func (s *NoOpTransactionScope) HistoryRepo() order.StatusHistoryRepository {
	return s.historyRepo
}

// CartRepo returns the cart repository.
func (s *NoOpTransactionScope) CartRepo() cart.CartRepository {
	return s.cartRepo
}

// MovementRepo returns the movement ledger repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.MovementRepository {
	return s.movementRepo
}

// ReservationRepo returns the reservation repository.
func (s *NoOpTransactionScope) ReservationRepo() inventory.ReservationRepository {
	return s.reservationRepo
}
