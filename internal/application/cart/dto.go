package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the input for adding a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// UpdateItemRequest is the input for replacing a cart line quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// CartLineDTO is one cart line enriched with catalog data. Available is
// advisory: it reflects stock at read time and guarantees nothing.
type CartLineDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Available   bool            `json:"available"`
}

// CartDTO is the full cart view for a user
type CartDTO struct {
	UserID uuid.UUID       `json:"user_id"`
	Lines  []CartLineDTO   `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

// CartIssue describes one advisory problem found during cart validation
type CartIssue struct {
	ProductID uuid.UUID `json:"product_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// ValidationResult is the outcome of an advisory cart check
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Issues []CartIssue `json:"issues"`
}
