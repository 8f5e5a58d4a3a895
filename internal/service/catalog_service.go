package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

// CategoryCache stores the full category listing. Implementations must treat a miss as (nil, false, nil).
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]entity.Category, bool, error)
	SetCategories(ctx context.Context, categories []entity.Category) error
	InvalidateCategories(ctx context.Context) error
}

// CatalogService serves and edits categories and products.
type CatalogService struct {
	store repository.Store
	cache CategoryCache
	now   func() time.Time
}

// NewCatalogService creates a CatalogService. cache may be nil.
func NewCatalogService(store repository.Store, cache CategoryCache) *CatalogService {
	return &CatalogService{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// ListCategories returns all categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]entity.Category, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetCategories(ctx)
		if err != nil {
			slog.Warn("Category cache read failed", "err", err)
		} else if ok {
			return cached, nil
		}
	}

	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCategories(ctx, categories); err != nil {
			slog.Warn("Category cache write failed", "err", err)
		}
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*entity.Category, error) {
	return s.store.Categories().Get(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor entity.Identity, name string) (*entity.Category, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	c := &entity.Category{ID: uuid.NewString(), Name: name}
	if err := s.store.Categories().Create(ctx, c); err != nil {
		return nil, categoryNameError(err)
	}
	s.invalidateCategories(ctx)

	slog.Info("Category created", "category_id", c.ID, "name", c.Name, "by", actor.UserID)
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, actor entity.Identity, id, name string) (*entity.Category, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	c := &entity.Category{ID: id, Name: name}
	if err := s.store.Categories().Update(ctx, c); err != nil {
		return nil, categoryNameError(err)
	}
	s.invalidateCategories(ctx)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, actor entity.Identity, id string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := s.store.Categories().Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCategories(ctx)

	slog.Info("Category deleted", "category_id", id, "by", actor.UserID)
	return nil
}

func categoryNameError(err error) error {
	if errors.Is(err, entity.ErrConflict) {
		return entity.NewValidationError("name", "category with this name already exists")
	}
	return err
}

func (s *CatalogService) invalidateCategories(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCategories(ctx); err != nil {
		slog.Warn("Category cache invalidation failed", "err", err)
	}
}

// ListProducts returns products matching filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	if filter.Ordering != "" && !filter.Ordering.Valid() {
		return nil, entity.NewValidationError("ordering", "cannot order by %q", filter.Ordering)
	}
	return s.store.Products().List(ctx, filter)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return s.store.Products().Get(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, actor entity.Identity, in ProductInput) (*entity.Product, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := &entity.Product{
		ID:            uuid.NewString(),
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price.Round(entity.PriceDecimals),
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
		CreatedDate:   s.now().UTC(),
	}
	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, err
	}

	slog.Info("Product created", "product_id", p.ID, "name", p.Name, "by", actor.UserID)
	return s.store.Products().Get(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor entity.Identity, id string, in ProductInput) (*entity.Product, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := &entity.Product{
		ID:            id,
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price.Round(entity.PriceDecimals),
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
	}
	if err := s.store.Products().Update(ctx, p); err != nil {
		return nil, err
	}
	return s.store.Products().Get(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor entity.Identity, id string) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("Product deleted", "product_id", id, "by", actor.UserID)
	return nil
}

func (s *CatalogService) ensureCategory(ctx context.Context, id string) error {
	_, err := s.store.Categories().Get(ctx, id)
	if errors.Is(err, entity.ErrNotFound) {
		return entity.NewValidationError("category_id", "category %s does not exist", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load category %s: %w", id, err)
	}
	return nil
}
