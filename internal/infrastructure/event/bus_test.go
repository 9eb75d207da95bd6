package event

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/shared"
	"github.com/toystore/backend/internal/infrastructure/logger"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	err      error
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	h.received = append(h.received, e)
	return h.err
}

func newStockChangedEvent(t *testing.T, stock, delta int) *catalog.ProductStockChangedEvent {
	t.Helper()
	product, err := catalog.NewProduct("Plush Bear", "TOY-BEAR-01", decimal.NewFromInt(20), stock)
	require.NoError(t, err)
	return catalog.NewProductStockChangedEvent(product, delta)
}

func TestInMemoryEventBus_DeliversToSubscribedHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	stockHandler := &recordingHandler{types: []string{"product.stock_changed"}}
	orderHandler := &recordingHandler{types: []string{"order.created"}}
	bus.Subscribe(stockHandler)
	bus.Subscribe(orderHandler)

	e := newStockChangedEvent(t, 10, -2)
	require.NoError(t, bus.Publish(context.Background(), e))

	require.Len(t, stockHandler.received, 1)
	assert.Equal(t, "product.stock_changed", stockHandler.received[0].EventType())
	assert.Empty(t, orderHandler.received, "handler for another type must not receive the event")
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &recordingHandler{types: []string{"product.stock_changed"}, err: errors.New("boom")}
	healthy := &recordingHandler{types: []string{"product.stock_changed"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newStockChangedEvent(t, 10, -1)))

	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_NoHandlersIsANoOp(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.NoError(t, bus.Publish(context.Background(), newStockChangedEvent(t, 3, -3)))
}

func TestLowStockHandler_WarnsOnlyBelowThreshold(t *testing.T) {
	log, err := logger.New(logger.DefaultConfig())
	require.NoError(t, err)

	handler := NewLowStockHandler(log, 5)
	assert.Equal(t, []string{"product.stock_changed"}, handler.EventTypes())

	// Deduction to a low level
	require.NoError(t, handler.Handle(context.Background(), newStockChangedEvent(t, 3, -2)))
	// Restock never warns, even at a low level
	require.NoError(t, handler.Handle(context.Background(), newStockChangedEvent(t, 3, 2)))
	// Plenty of stock
	require.NoError(t, handler.Handle(context.Background(), newStockChangedEvent(t, 50, -1)))
}

func TestNewLowStockHandler_DefaultsThreshold(t *testing.T) {
	handler := NewLowStockHandler(zap.NewNop(), 0)
	assert.Equal(t, DefaultLowStockThreshold, handler.threshold)
}
