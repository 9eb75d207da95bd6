package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toystore/backend/internal/domain/cart"
	"github.com/toystore/backend/internal/domain/catalog"
	"github.com/toystore/backend/internal/domain/inventory"
	"github.com/toystore/backend/internal/domain/shared"
)

// CartService manages per-user carts. Carts never hold stock; every check
// here is advisory and the authoritative check happens at order creation.
type CartService struct {
	cartRepo        cart.CartRepository
	productRepo     catalog.ProductRepository
	reservationRepo inventory.ReservationRepository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo cart.CartRepository, productRepo catalog.ProductRepository, reservationRepo inventory.ReservationRepository) *CartService {
	return &CartService{
		cartRepo:        cartRepo,
		productRepo:     productRepo,
		reservationRepo: reservationRepo,
	}
}

// AddItem adds a product to the user's cart, merging quantities when the
// product is already present. The stock check is advisory feedback only;
// nothing is held until order creation.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("%s is no longer available", product.Name))
	}

	existing, err := s.cartRepo.FindByUserAndProduct(ctx, userID, req.ProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	inCart := 0
	if existing != nil {
		inCart = existing.Quantity
	}
	if inCart+req.Quantity > product.Stock {
		return nil, insufficientStock(product, inCart)
	}

	if existing != nil {
		if err := existing.AddQuantity(req.Quantity); err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		item, err := cart.NewCartItem(userID, req.ProductID, req.Quantity)
		if err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, item); err != nil {
			return nil, err
		}
	}

	return s.GetCart(ctx, userID)
}

// UpdateItem replaces the quantity on one cart line, with the same advisory
// stock check as AddItem
func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req UpdateItemRequest) (*CartDTO, error) {
	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.NewDomainError("PRODUCT_INACTIVE", fmt.Sprintf("%s is no longer available", product.Name))
	}
	if req.Quantity > product.Stock {
		return nil, insufficientStock(product, 0)
	}

	if err := item.ChangeQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func insufficientStock(product *catalog.Product, inCart int) error {
	available := product.Stock - inCart
	if available < 0 {
		available = 0
	}
	return shared.NewDomainError("INSUFFICIENT_STOCK",
		fmt.Sprintf("Insufficient stock for %s (available: %d)", product.Name, available))
}

// RemoveItem deletes one cart line
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	item, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	return s.cartRepo.Delete(ctx, item.ID)
}

// Clear removes every line from the user's cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.cartRepo.DeleteByUser(ctx, userID)
}

// GetCart returns the user's cart with current catalog prices. Cart totals
// use live prices; only order creation freezes them.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := &CartDTO{UserID: userID, Lines: make([]CartLineDTO, 0, len(items)), Total: decimal.Zero}
	if len(items) == 0 {
		return dto, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			// product was deleted after it went into the cart
			dto.Lines = append(dto.Lines, CartLineDTO{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Subtotal:  decimal.Zero,
				Available: false,
			})
			continue
		}

		subtotal := product.PriceMoney().MultiplyByInt(int64(item.Quantity)).Amount()
		dto.Lines = append(dto.Lines, CartLineDTO{
			ProductID:   item.ProductID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			Subtotal:    subtotal,
			Available:   product.CanFulfill(item.Quantity),
		})
		dto.Total = dto.Total.Add(subtotal)
	}

	return dto, nil
}

// Validate runs an advisory availability check over the whole cart against
// stock minus active holds. A passing result does not guarantee the order
// will succeed; the locked check at creation time decides.
func (s *CartService) Validate(ctx context.Context, userID uuid.UUID) (*ValidationResult, error) {
	items, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Valid: true, Issues: []CartIssue{}}
	if len(items) == 0 {
		result.Valid = false
		result.Issues = append(result.Issues, CartIssue{Code: "EMPTY_CART", Message: "Cart is empty"})
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ownReservations, err := s.reservationRepo.FindActiveByUserAndProducts(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	ownHeld := make(map[uuid.UUID]int)
	for _, r := range ownReservations {
		ownHeld[r.ProductID] += r.Quantity
	}

	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			result.addIssue(item.ProductID, "NOT_FOUND", "Product no longer exists")
			continue
		}
		if !product.IsActive {
			result.addIssue(item.ProductID, "PRODUCT_INACTIVE", fmt.Sprintf("%s is no longer available", product.Name))
			continue
		}
		if item.Quantity > product.Stock {
			result.addIssue(item.ProductID, "INSUFFICIENT_STOCK",
				fmt.Sprintf("%s has only %d units in stock", product.Name, product.Stock))
			continue
		}

		held, err := s.reservationRepo.SumActiveByProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		available := product.Stock - (held - ownHeld[item.ProductID])
		if item.Quantity > available {
			result.addIssue(item.ProductID, "INSUFFICIENT_AVAILABLE",
				fmt.Sprintf("%s has only %d units available after active holds", product.Name, available))
		}
	}

	return result, nil
}

func (r *ValidationResult) addIssue(productID uuid.UUID, code, message string) {
	r.Valid = false
	r.Issues = append(r.Issues, CartIssue{ProductID: productID, Code: code, Message: message})
}
