package catalog

import "github.com/toystore/backend/internal/domain/shared"

// ProductStockChangedEvent is raised whenever the saleable stock counter moves
type ProductStockChangedEvent struct {
	shared.BaseDomainEvent
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Delta     int    `json:"delta"`
	Stock     int    `json:"stock"`
}

// NewProductStockChangedEvent creates a stock changed event
func NewProductStockChangedEvent(p *Product, delta int) *ProductStockChangedEvent {
	return &ProductStockChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("product.stock_changed", "Product", p.ID),
		ProductID:       p.ID.String(),
		SKU:             p.SKU,
		Delta:           delta,
		Stock:           p.Stock,
	}
}
