package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/toystore/backend/internal/application/inventory"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/order"
	"github.com/toystore/backend/internal/domain/shared"
)

// OrderService drives the order lifecycle. Order creation and every
// stock-affecting transition run inside a single transaction so an order and
// its ledger entries can never disagree.
type OrderService struct {
	scope          appinventory.TransactionScope
	ledger         *appinventory.StockLedgerService
	idempotency    shared.IdempotencyStore
	idempotencyCfg shared.IdempotencyConfig
	eventPublisher shared.EventPublisher
}

// NewOrderService creates a new OrderService
func NewOrderService(scope appinventory.TransactionScope, ledger *appinventory.StockLedgerService, idempotency shared.IdempotencyStore) *OrderService {
	return &OrderService{
		scope:          scope,
		ledger:         ledger,
		idempotency:    idempotency,
		idempotencyCfg: shared.DefaultIdempotencyConfig(),
	}
}

// SetEventPublisher sets the publisher for domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// generateOrderNumber builds a human-readable unique order number
func generateOrderNumber() string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

// CreateOrder converts the user's cart into a pending order. In one
// transaction it locks the product rows, checks stock and availability,
// deducts stock with ledger entries, consumes the user's holds, snapshots
// prices onto the order, and clears the cart. Any failure rolls the whole
// thing back, cart included. Cash-on-delivery orders skip the gateway and
// move straight to paid, with the transition recorded in the history.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	var dto OrderDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		cartItems, err := repos.CartRepo().FindByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return shared.ErrEmptyCart
		}

		lines := make([]appinventory.StockLine, 0, len(cartItems))
		for _, item := range cartItems {
			lines = append(lines, appinventory.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		products, err := s.ledger.LockProducts(ctx, repos, lines)
		if err != nil {
			return err
		}

		orderItems := make([]order.OrderItem, 0, len(cartItems))
		for _, item := range cartItems {
			product := products[item.ProductID]
			orderItem, err := order.NewOrderItem(product.ID, product.Name, item.Quantity, product.Price)
			if err != nil {
				return err
			}
			orderItems = append(orderItems, orderItem)
		}

		o, err := order.NewOrder(generateOrderNumber(), userID, req.ShippingAddress, order.PaymentMethod(req.PaymentMethod), orderItems)
		if err != nil {
			return err
		}

		if err := s.ledger.CommitForOrder(ctx, repos, userID, o.ID, lines, products); err != nil {
			return err
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}

		if o.PaymentMethod.SettlesOnDelivery() {
			history, err := o.TransitionTo(order.StatusPaid, "checkout", "cash on delivery")
			if err != nil {
				return err
			}
			if err := repos.OrderRepo().Save(ctx, o); err != nil {
				return err
			}
			if err := repos.HistoryRepo().Append(ctx, history); err != nil {
				return err
			}
		}

		if err := repos.CartRepo().DeleteByUser(ctx, userID); err != nil {
			return err
		}

		s.publishEvents(ctx, o)
		dto = ToOrderDTO(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Transition moves an order to the target status. The transition, its
// history entry, and any compensating stock release commit atomically.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target order.OrderStatus, changedBy, reason string) (*OrderDTO, error) {
	var dto OrderDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		history, err := o.TransitionTo(target, changedBy, reason)
		if err != nil {
			return err
		}

		if target.ReleasesStock() {
			lines := make([]appinventory.StockLine, 0, len(o.Items))
			for _, item := range o.Items {
				lines = append(lines, appinventory.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
			}
			movementReason := inventory.ReasonOrderCancelled
			if target == order.StatusRefunded {
				movementReason = inventory.ReasonOrderRefunded
			}
			if err := s.ledger.ReleaseForOrder(ctx, repos, o.ID, lines, movementReason); err != nil {
				return err
			}
		}

		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		if err := repos.HistoryRepo().Append(ctx, history); err != nil {
			return err
		}

		s.publishEvents(ctx, o)
		dto = ToOrderDTO(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Cancel cancels a user's own order
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uuid.UUID, reason string) (*OrderDTO, error) {
	if err := s.checkOwnership(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.Transition(ctx, orderID, order.StatusCancelled, userID.String(), reason)
}

// HandlePaymentResult applies a payment gateway callback. Deliveries are
// deduplicated by reference; a retry of an already-processed reference is
// acknowledged without touching the order. The reference is recorded only
// after the transition commits, so a delivery that fails transiently stays
// fresh and the gateway's retry gets another attempt.
func (s *OrderService) HandlePaymentResult(ctx context.Context, req PaymentResultRequest) (*OrderDTO, error) {
	dedup := s.idempotency != nil && s.idempotencyCfg.Enabled
	if dedup {
		processed, err := s.idempotency.IsProcessed(ctx, "payment:"+req.Reference)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if processed {
			return s.getByOrderNumber(ctx, req.OrderNumber)
		}
	}

	var orderID uuid.UUID
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByOrderNumber(ctx, req.OrderNumber)
		if err != nil {
			return err
		}
		orderID = o.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	target := order.StatusPaid
	if !req.Success {
		target = order.StatusCancelled
	}
	dto, err := s.Transition(ctx, orderID, target, "payment-gateway", req.Reason)
	if err != nil {
		return nil, err
	}

	if dedup {
		// the transition is already committed; dedup is best effort
		_, _ = s.idempotency.MarkProcessed(ctx, "payment:"+req.Reference, s.idempotencyCfg.TTL)
	}
	return dto, nil
}

// GetOrder returns one order for its owner
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	var dto OrderDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return shared.ErrForbidden
		}
		dto = ToOrderDTO(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListUserOrders returns a page of the user's orders
func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[OrderDTO], error) {
	var page *shared.Paginated[OrderDTO]
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		orders, err := repos.OrderRepo().FindByUser(ctx, userID, filter)
		if err != nil {
			return err
		}
		page = ToOrderDTOs(orders)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListOrders returns a page of all orders, for back office use
func (s *OrderService) ListOrders(ctx context.Context, filter shared.Filter) (*shared.Paginated[OrderDTO], error) {
	var page *shared.Paginated[OrderDTO]
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		orders, err := repos.OrderRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		page = ToOrderDTOs(orders)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// StatusSummary returns order counts per lifecycle status. Statuses with no
// orders appear with a zero count.
func (s *OrderService) StatusSummary(ctx context.Context) (map[string]int64, error) {
	var summary map[string]int64
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		counts, err := repos.OrderRepo().CountByStatus(ctx)
		if err != nil {
			return err
		}
		summary = make(map[string]int64, len(order.AllStatuses()))
		for _, status := range order.AllStatuses() {
			summary[string(status)] = counts[status]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetStatusHistory returns the full transition log for an order, oldest first
func (s *OrderService) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryDTO, error) {
	var dtos []StatusHistoryDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		if _, err := repos.OrderRepo().FindByID(ctx, orderID); err != nil {
			return err
		}
		entries, err := repos.HistoryRepo().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		dtos = make([]StatusHistoryDTO, 0, len(entries))
		for _, h := range entries {
			dtos = append(dtos, ToStatusHistoryDTO(h))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dtos, nil
}

func (s *OrderService) checkOwnership(ctx context.Context, userID, orderID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return shared.ErrForbidden
		}
		return nil
	})
}

func (s *OrderService) getByOrderNumber(ctx context.Context, orderNumber string) (*OrderDTO, error) {
	var dto OrderDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByOrderNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		dto = ToOrderDTO(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// event delivery is best effort and never fails the transaction
	_ = s.eventPublisher.Publish(ctx, events...)
	o.ClearDomainEvents()
}
