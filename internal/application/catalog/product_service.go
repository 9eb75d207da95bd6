package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appinventory "github.com/toystore/backend/internal/application/inventory"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/shared"
)

// ProductService handles catalog administration. Stock never changes here
// except for the opening ledger entry at creation; adjustments go through
// the stock ledger service.
type ProductService struct {
	scope  appinventory.TransactionScope
	ledger *appinventory.StockLedgerService
}

// NewProductService creates a new ProductService
func NewProductService(scope appinventory.TransactionScope, ledger *appinventory.StockLedgerService) *ProductService {
	return &ProductService{scope: scope, ledger: ledger}
}

// CreateProduct creates a product and writes its opening ledger entry in the
// same transaction
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductDTO, error) {
	var dto ProductDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		existing, err := repos.ProductRepo().FindBySKU(ctx, req.SKU)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("SKU %s is already in use", req.SKU))
		}

		product, err := catalog.NewProduct(req.Name, req.SKU, req.Price, req.InitialStock)
		if err != nil {
			return err
		}
		product.Description = req.Description

		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}
		if err := s.ledger.RecordInitialStock(ctx, repos, product); err != nil {
			return err
		}

		dto = ToProductDTO(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// UpdateProduct applies partial catalog updates
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	var dto ProductDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			if *req.Name == "" {
				return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
			}
			product.Name = *req.Name
		}
		if req.Description != nil {
			product.Description = *req.Description
		}
		if req.Price != nil {
			if err := product.ChangePrice(*req.Price); err != nil {
				return err
			}
		}
		if req.IsActive != nil {
			if *req.IsActive {
				product.Activate()
			} else {
				product.Deactivate()
			}
		}

		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}
		dto = ToProductDTO(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// GetProduct returns one product
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	var dto ProductDTO
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		dto = ToProductDTO(product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListProducts returns a page of products
func (s *ProductService) ListProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductDTO], error) {
	var page *shared.Paginated[ProductDTO]
	err := s.scope.Execute(ctx, func(repos appinventory.TransactionalRepositories) error {
		products, err := repos.ProductRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		page = ToProductDTOs(products)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
