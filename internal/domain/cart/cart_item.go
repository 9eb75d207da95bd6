package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/toystore/backend/internal/domain/shared"
)

// CartItem is one line in a user's cart. Carts are advisory: quantities here
// never reserve stock, so a cart item can temporarily exceed what is saleable.
type CartItem struct {
	shared.BaseEntity
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	Quantity  int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// NewCartItem creates a cart line for a user and product
func NewCartItem(userID, productID uuid.UUID, quantity int) (*CartItem, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Cart quantity must be positive")
	}

	return &CartItem{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
	}, nil
}

// ChangeQuantity replaces the line quantity
func (c *CartItem) ChangeQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Cart quantity must be positive")
	}
	c.Quantity = quantity
	c.UpdatedAt = time.Now()
	return nil
}

// AddQuantity increases the line quantity when the product is added again
func (c *CartItem) AddQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Cart quantity must be positive")
	}
	c.Quantity += quantity
	c.UpdatedAt = time.Now()
	return nil
}
