package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/shared"
)

// CreateProductRequest is the input for creating a catalog product
type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required,max=255"`
	SKU          string          `json:"sku" binding:"required,max=100"`
	Description  string          `json:"description" binding:"max=2000"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	InitialStock int             `json:"initial_stock" binding:"gte=0"`
}

// UpdateProductRequest is the input for updating catalog fields.
// Stock is absent on purpose; stock only moves through the ledger.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
}

// ProductDTO is the API representation of a product
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToProductDTO converts a domain product to its DTO
func ToProductDTO(p *catalog.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductDTOs converts a paginated set of products
func ToProductDTOs(page *shared.Paginated[*catalog.Product]) *shared.Paginated[ProductDTO] {
	items := make([]ProductDTO, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, ToProductDTO(p))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result
}
