package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/toystore/backend/internal/domain/shared"
	"github.com/toystore/backend/internal/domain/shared/valueobject"
)

// Product is the aggregate root for catalog products.
// The Stock field is the authoritative saleable quantity; it is mutated only by
// the stock ledger inside a locked transaction, never directly by callers.
type Product struct {
	shared.BaseAggregateRoot
	Name        string          `gorm:"type:varchar(255);not null"`
	SKU         string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	IsActive    bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with an initial stock level
func NewProduct(name, sku string, price decimal.Decimal, initialStock int) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Product SKU cannot be empty")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price must be positive")
	}
	if initialStock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Initial stock cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SKU:               sku,
		Price:             price,
		Stock:             initialStock,
		IsActive:          true,
	}, nil
}

// ChangePrice updates the product price.
// Unit prices already snapshotted on order items are unaffected.
func (p *Product) ChangePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_PRICE", "Product price must be positive")
	}
	p.Price = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Activate makes the product saleable
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Deactivate removes the product from sale without touching stock
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// CanFulfill returns true if the product is active and has enough stock
func (p *Product) CanFulfill(qty int) bool {
	return p.IsActive && p.Stock >= qty
}

// DeductStock removes qty units from stock.
// Callers must hold the product row lock; the check here is the authoritative
// one performed against the locked row.
func (p *Product) DeductStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !p.IsActive {
		return shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("%s is no longer available", p.Name))
	}
	if p.Stock < qty {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("%s has insufficient stock (available: %d)", p.Name, p.Stock))
	}

	p.Stock -= qty
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, -qty))
	return nil
}

// RestoreStock returns qty units to the saleable pool (cancellation, refund, restock)
func (p *Product) RestoreStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	p.Stock += qty
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, qty))
	return nil
}

// ApplyStockDelta applies a signed adjustment, rejecting deltas that would
// drive stock negative
func (p *Product) ApplyStockDelta(delta int) error {
	if delta == 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}
	if p.Stock+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("%s has insufficient stock (available: %d)", p.Name, p.Stock))
	}

	p.Stock += delta
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, delta))
	return nil
}

// PriceMoney returns the current price as a Money value object
func (p *Product) PriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Price)
}
