package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

// CartService manages each user's cart. Stock is checked here but only deducted at checkout.
type CartService struct {
	store repository.Store
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{
		store: store,
	}
}

// ListItems returns the user's cart lines with their current products.
func (s *CartService) ListItems(ctx context.Context, userID string) ([]entity.CartLine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Carts().ListByUser(ctx, userID)
}

// GetItem returns one of the user's cart lines; another user's item is reported as not found.
func (s *CartService) GetItem(ctx context.Context, userID, id string) (*entity.CartLine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Carts().GetForUser(ctx, userID, id)
}

// AddOrUpdate sets the quantity of productID in the user's cart, creating the item if needed.
// The quantity replaces any previous value.
func (s *CartService) AddOrUpdate(ctx context.Context, userID, productID string, quantity int) (*entity.CartLine, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, entity.NewValidationError("product_id", "this field is required")
	}
	if quantity <= 0 {
		return nil, entity.NewValidationError("quantity", "must be a positive integer")
	}

	product, err := s.store.Products().Get(ctx, productID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, entity.NewValidationError("product_id", "product %s does not exist", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	if quantity > product.StockQuantity {
		return nil, &entity.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.StockQuantity,
		}
	}

	item := &entity.CartItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  quantity,
	}
	if err := s.store.Carts().Upsert(ctx, item); err != nil {
		return nil, err
	}

	slog.Info("Service: Cart item set", "user_id", userID, "product_id", product.ID, "quantity", quantity)
	return &entity.CartLine{Item: *item, Product: *product}, nil
}

// RemoveItem deletes one of the user's cart items.
func (s *CartService) RemoveItem(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.Carts().DeleteForUser(ctx, userID, id)
}
