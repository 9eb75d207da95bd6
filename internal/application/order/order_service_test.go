package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/toystore/backend/internal/domain/cart"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/order"
	"github.com/toystore/backend/internal/domain/shared"
)

func makeProduct(t *testing.T, name string, price float64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, "SKU-"+uuid.NewString()[:8], decimal.NewFromFloat(price), stock)
	require.NoError(t, err)
	return p
}

func makeOrder(t *testing.T, userID uuid.UUID, productID uuid.UUID, qty int) *order.Order {
	t.Helper()
	item, err := order.NewOrderItem(productID, "Wooden Train Set", qty, decimal.NewFromFloat(29.99))
	require.NoError(t, err)
	o, err := order.NewOrder("ORD-20260831-TEST01", userID, "1 Toy Lane, Springfield", order.PaymentCreditCard, []order.OrderItem{item})
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func checkoutReq() CreateOrderRequest {
	return CreateOrderRequest{
		ShippingAddress: "1 Toy Lane, Springfield",
		PaymentMethod:   "credit_card",
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates pending order from cart", func(t *testing.T) {
		env := newTestEnv()
		product := makeProduct(t, "Wooden Train Set", 29.99, 10)
		cartItem, err := cart.NewCartItem(userID, product.ID, 3)
		require.NoError(t, err)

		env.cartRepo.On("FindByUser", ctx, userID).Return([]*cart.CartItem{cartItem}, nil)
		env.productRepo.On("FindByIDsForUpdate", ctx, mock.Anything).Return([]*catalog.Product{product}, nil)
		env.reservationRepo.On("FindActiveByUserAndProducts", ctx, userID, mock.Anything).Return([]*inventory.InventoryReservation{}, nil)
		env.reservationRepo.On("SumActiveByProduct", ctx, product.ID).Return(0, nil)
		env.productRepo.On("Save", ctx, product).Return(nil)
		env.movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.InventoryMovement) bool {
			return m.Delta == -3 && m.Reason == inventory.ReasonOrderPlaced
		})).Return(nil)
		env.orderRepo.On("Save", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.Status == order.StatusPending && o.TotalAmount.Equal(decimal.NewFromFloat(89.97))
		})).Return(nil)
		env.cartRepo.On("DeleteByUser", ctx, userID).Return(nil)

		dto, err := env.svc.CreateOrder(ctx, userID, checkoutReq())
		require.NoError(t, err)

		assert.Equal(t, "pending", dto.Status)
		assert.Equal(t, "credit_card", dto.PaymentMethod)
		assert.Equal(t, "1 Toy Lane, Springfield", dto.ShippingAddress)
		assert.Equal(t, 7, product.Stock)
		require.Len(t, dto.Items, 1)
		assert.True(t, dto.Items[0].UnitPrice.Equal(decimal.NewFromFloat(29.99)))
		env.cartRepo.AssertCalled(t, "DeleteByUser", ctx, userID)
	})

	t.Run("cash on delivery is paid at creation with a history entry", func(t *testing.T) {
		env := newTestEnv()
		product := makeProduct(t, "Wooden Train Set", 29.99, 10)
		cartItem, err := cart.NewCartItem(userID, product.ID, 1)
		require.NoError(t, err)

		env.cartRepo.On("FindByUser", ctx, userID).Return([]*cart.CartItem{cartItem}, nil)
		env.productRepo.On("FindByIDsForUpdate", ctx, mock.Anything).Return([]*catalog.Product{product}, nil)
		env.reservationRepo.On("FindActiveByUserAndProducts", ctx, userID, mock.Anything).Return([]*inventory.InventoryReservation{}, nil)
		env.reservationRepo.On("SumActiveByProduct", ctx, product.ID).Return(0, nil)
		env.productRepo.On("Save", ctx, product).Return(nil)
		env.movementRepo.On("Append", ctx, mock.Anything).Return(nil)
		env.orderRepo.On("Save", ctx, mock.Anything).Return(nil)
		env.historyRepo.On("Append", ctx, mock.MatchedBy(func(h *order.OrderStatusHistory) bool {
			return h.FromStatus == order.StatusPending && h.ToStatus == order.StatusPaid && h.ChangedBy == "checkout"
		})).Return(nil)
		env.cartRepo.On("DeleteByUser", ctx, userID).Return(nil)

		dto, err := env.svc.CreateOrder(ctx, userID, CreateOrderRequest{
			ShippingAddress: "1 Toy Lane, Springfield",
			PaymentMethod:   "cash_on_delivery",
		})
		require.NoError(t, err)

		assert.Equal(t, "paid", dto.Status)
		env.historyRepo.AssertExpectations(t)
	})

	t.Run("rejects empty cart", func(t *testing.T) {
		env := newTestEnv()
		env.cartRepo.On("FindByUser", ctx, userID).Return([]*cart.CartItem{}, nil)

		_, err := env.svc.CreateOrder(ctx, userID, checkoutReq())
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("insufficient stock aborts without saving order or clearing cart", func(t *testing.T) {
		env := newTestEnv()
		product := makeProduct(t, "Wooden Train Set", 29.99, 1)
		cartItem, err := cart.NewCartItem(userID, product.ID, 3)
		require.NoError(t, err)

		env.cartRepo.On("FindByUser", ctx, userID).Return([]*cart.CartItem{cartItem}, nil)
		env.productRepo.On("FindByIDsForUpdate", ctx, mock.Anything).Return([]*catalog.Product{product}, nil)
		env.reservationRepo.On("FindActiveByUserAndProducts", ctx, userID, mock.Anything).Return([]*inventory.InventoryReservation{}, nil)
		env.reservationRepo.On("SumActiveByProduct", ctx, product.ID).Return(0, nil)

		_, err = env.svc.CreateOrder(ctx, userID, checkoutReq())
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		env.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		env.cartRepo.AssertNotCalled(t, "DeleteByUser", mock.Anything, mock.Anything)
	})
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("pending to paid appends history without stock release", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, userID, uuid.New(), 2)

		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		env.orderRepo.On("Save", ctx, o).Return(nil)
		env.historyRepo.On("Append", ctx, mock.MatchedBy(func(h *order.OrderStatusHistory) bool {
			return h.FromStatus == order.StatusPending && h.ToStatus == order.StatusPaid
		})).Return(nil)

		dto, err := env.svc.Transition(ctx, o.ID, order.StatusPaid, "admin", "payment confirmed")
		require.NoError(t, err)

		assert.Equal(t, "paid", dto.Status)
		env.productRepo.AssertNotCalled(t, "FindByIDsForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("cancel releases stock with compensating movement", func(t *testing.T) {
		env := newTestEnv()
		product := makeProduct(t, "Wooden Train Set", 29.99, 7)
		o := makeOrder(t, userID, product.ID, 2)

		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		env.productRepo.On("FindByIDsForUpdate", ctx, mock.Anything).Return([]*catalog.Product{product}, nil)
		env.productRepo.On("Save", ctx, product).Return(nil)
		env.movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.InventoryMovement) bool {
			return m.Delta == 2 && m.Reason == inventory.ReasonOrderCancelled && *m.ReferenceID == o.ID
		})).Return(nil)
		env.orderRepo.On("Save", ctx, o).Return(nil)
		env.historyRepo.On("Append", ctx, mock.Anything).Return(nil)

		dto, err := env.svc.Transition(ctx, o.ID, order.StatusCancelled, "admin", "customer request")
		require.NoError(t, err)

		assert.Equal(t, "cancelled", dto.Status)
		assert.Equal(t, 9, product.Stock)
		env.movementRepo.AssertExpectations(t)
	})

	t.Run("refund after delivery releases stock with refund reason", func(t *testing.T) {
		env := newTestEnv()
		product := makeProduct(t, "Wooden Train Set", 29.99, 5)
		o := makeOrder(t, userID, product.ID, 1)
		for _, step := range []order.OrderStatus{order.StatusPaid, order.StatusProcessing, order.StatusShipped, order.StatusDelivered} {
			_, err := o.TransitionTo(step, "test", "")
			require.NoError(t, err)
		}

		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		env.productRepo.On("FindByIDsForUpdate", ctx, mock.Anything).Return([]*catalog.Product{product}, nil)
		env.productRepo.On("Save", ctx, product).Return(nil)
		env.movementRepo.On("Append", ctx, mock.MatchedBy(func(m *inventory.InventoryMovement) bool {
			return m.Delta == 1 && m.Reason == inventory.ReasonOrderRefunded
		})).Return(nil)
		env.orderRepo.On("Save", ctx, o).Return(nil)
		env.historyRepo.On("Append", ctx, mock.Anything).Return(nil)

		dto, err := env.svc.Transition(ctx, o.ID, order.StatusRefunded, "admin", "defective")
		require.NoError(t, err)
		assert.Equal(t, "refunded", dto.Status)
		assert.Equal(t, 6, product.Stock)
	})

	t.Run("invalid transition leaves everything untouched", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, userID, uuid.New(), 1)

		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := env.svc.Transition(ctx, o.ID, order.StatusDelivered, "admin", "")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
		env.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		env.historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects cancelling another user's order", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, uuid.New(), uuid.New(), 1)

		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := env.svc.Cancel(ctx, userID, o.ID, "changed my mind")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestHandlePaymentResult(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("successful payment moves order to paid and records the reference", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, userID, uuid.New(), 1)

		env.idempotency.On("IsProcessed", ctx, "payment:pay-ref-1").Return(false, nil)
		env.orderRepo.On("FindByOrderNumber", ctx, o.OrderNumber).Return(o, nil)
		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		env.orderRepo.On("Save", ctx, o).Return(nil)
		env.historyRepo.On("Append", ctx, mock.Anything).Return(nil)
		env.idempotency.On("MarkProcessed", ctx, "payment:pay-ref-1", mock.Anything).Return(true, nil)

		dto, err := env.svc.HandlePaymentResult(ctx, PaymentResultRequest{
			OrderNumber: o.OrderNumber,
			Reference:   "pay-ref-1",
			Success:     true,
		})
		require.NoError(t, err)
		assert.Equal(t, "paid", dto.Status)
		env.idempotency.AssertCalled(t, "MarkProcessed", ctx, "payment:pay-ref-1", mock.Anything)
	})

	t.Run("transient failure leaves the reference fresh for the retry", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, userID, uuid.New(), 1)

		env.idempotency.On("IsProcessed", ctx, "payment:pay-ref-4").Return(false, nil)
		env.orderRepo.On("FindByOrderNumber", ctx, o.OrderNumber).Return(o, nil)
		env.orderRepo.On("FindByID", ctx, o.ID).Return(nil, errors.New("connection reset")).Once()
		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		env.orderRepo.On("Save", ctx, o).Return(nil)
		env.historyRepo.On("Append", ctx, mock.Anything).Return(nil)
		env.idempotency.On("MarkProcessed", ctx, "payment:pay-ref-4", mock.Anything).Return(true, nil)

		req := PaymentResultRequest{OrderNumber: o.OrderNumber, Reference: "pay-ref-4", Success: true}

		_, err := env.svc.HandlePaymentResult(ctx, req)
		require.Error(t, err)
		env.idempotency.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)

		dto, err := env.svc.HandlePaymentResult(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "paid", dto.Status)
		env.idempotency.AssertNumberOfCalls(t, "MarkProcessed", 1)
	})

	t.Run("failed payment cancels order and restores stock", func(t *testing.T) {
		env := newTestEnv()
		product := makeProduct(t, "Wooden Train Set", 29.99, 9)
		o := makeOrder(t, userID, product.ID, 2)

		env.idempotency.On("IsProcessed", ctx, "payment:pay-ref-2").Return(false, nil)
		env.idempotency.On("MarkProcessed", ctx, "payment:pay-ref-2", mock.Anything).Return(true, nil)
		env.orderRepo.On("FindByOrderNumber", ctx, o.OrderNumber).Return(o, nil)
		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		env.productRepo.On("FindByIDsForUpdate", ctx, mock.Anything).Return([]*catalog.Product{product}, nil)
		env.productRepo.On("Save", ctx, product).Return(nil)
		env.movementRepo.On("Append", ctx, mock.Anything).Return(nil)
		env.orderRepo.On("Save", ctx, o).Return(nil)
		env.historyRepo.On("Append", ctx, mock.Anything).Return(nil)

		dto, err := env.svc.HandlePaymentResult(ctx, PaymentResultRequest{
			OrderNumber: o.OrderNumber,
			Reference:   "pay-ref-2",
			Success:     false,
			Reason:      "card declined",
		})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", dto.Status)
		assert.Equal(t, 11, product.Stock)
	})

	t.Run("duplicate delivery is acknowledged without reprocessing", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, userID, uuid.New(), 1)
		_, err := o.TransitionTo(order.StatusPaid, "payment-gateway", "")
		require.NoError(t, err)

		env.idempotency.On("IsProcessed", ctx, "payment:pay-ref-3").Return(true, nil)
		env.orderRepo.On("FindByOrderNumber", ctx, o.OrderNumber).Return(o, nil)

		dto, err := env.svc.HandlePaymentResult(ctx, PaymentResultRequest{
			OrderNumber: o.OrderNumber,
			Reference:   "pay-ref-3",
			Success:     true,
		})
		require.NoError(t, err)

		assert.Equal(t, "paid", dto.Status)
		env.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		env.historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("owner can read", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, userID, uuid.New(), 1)
		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		dto, err := env.svc.GetOrder(ctx, userID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.OrderNumber, dto.OrderNumber)
	})

	t.Run("other users are rejected", func(t *testing.T) {
		env := newTestEnv()
		o := makeOrder(t, uuid.New(), uuid.New(), 1)
		env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := env.svc.GetOrder(ctx, userID, o.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestGetStatusHistory(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	env := newTestEnv()
	o := makeOrder(t, userID, uuid.New(), 1)
	entries := []*order.OrderStatusHistory{
		order.NewOrderStatusHistory(o.ID, order.StatusPending, order.StatusPaid, "payment-gateway", ""),
		order.NewOrderStatusHistory(o.ID, order.StatusPaid, order.StatusProcessing, "admin", "picking"),
	}

	env.orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
	env.historyRepo.On("FindByOrder", ctx, o.ID).Return(entries, nil)

	dtos, err := env.svc.GetStatusHistory(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, dtos, 2)
	assert.Equal(t, "pending", dtos[0].FromStatus)
	assert.Equal(t, "processing", dtos[1].ToStatus)
}

func TestStatusSummary(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv()
	env.orderRepo.On("CountByStatus", ctx).Return(map[order.OrderStatus]int64{
		order.StatusPending: 3,
		order.StatusPaid:    1,
	}, nil)

	summary, err := env.svc.StatusSummary(ctx)
	require.NoError(t, err)

	// Every status is present, even the ones with no orders.
	require.Len(t, summary, len(order.AllStatuses()))
	assert.Equal(t, int64(3), summary["pending"])
	assert.Equal(t, int64(1), summary["paid"])
	assert.Equal(t, int64(0), summary["cancelled"])
}
