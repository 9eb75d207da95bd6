package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/shared"
)

// DefaultLowStockThreshold is used when no threshold is configured
const DefaultLowStockThreshold = 5

// LowStockHandler warns when a stock change leaves a product at or below the
// threshold. It is an observer only; replenishment stays a human decision.
type LowStockHandler struct {
	logger    *zap.Logger
	threshold int
}

// NewLowStockHandler creates a handler warning at or below threshold
func NewLowStockHandler(logger *zap.Logger, threshold int) *LowStockHandler {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &LowStockHandler{logger: logger, threshold: threshold}
}

// EventTypes implements shared.EventHandler
func (h *LowStockHandler) EventTypes() []string {
	return []string{"product.stock_changed"}
}

// Handle implements shared.EventHandler
func (h *LowStockHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	stockChanged, ok := e.(*catalog.ProductStockChangedEvent)
	if !ok {
		return nil
	}
	if stockChanged.Delta < 0 && stockChanged.Stock <= h.threshold {
		h.logger.Warn("product stock is running low",
			zap.String("product_id", stockChanged.ProductID),
			zap.String("sku", stockChanged.SKU),
			zap.Int("stock", stockChanged.Stock),
			zap.Int("threshold", h.threshold),
		)
	}
	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)
