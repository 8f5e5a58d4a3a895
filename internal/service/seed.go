package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

type seedProduct struct {
	id, category, name, description, price, imageURL string
	stock                                            int
}

var seedCategories = []entity.Category{
	{ID: "cat-accessories", Name: "Accessories"},
	{ID: "cat-electronics", Name: "Electronics"},
	{ID: "cat-furniture", Name: "Furniture"},
	{ID: "cat-home", Name: "Home"},
}

var seedProducts = []seedProduct{
	{id: "prod-001", category: "cat-electronics", name: "Wireless Noise-Cancelling Headphones", description: "Premium over-ear headphones with active noise cancellation and 30-hour battery life.", price: "349.99", imageURL: "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400", stock: 50},
	{id: "prod-002", category: "cat-electronics", name: "Mechanical Keyboard RGB", description: "Cherry MX switches with per-key RGB lighting and aluminum frame.", price: "179.99", imageURL: "https://images.unsplash.com/photo-1618384887929-16ec33fab9ef?w=400", stock: 120},
	{id: "prod-003", category: "cat-electronics", name: "Ultrawide Curved Monitor 34\"", description: "UWQHD 3440x1440 144Hz IPS panel with USB-C connectivity.", price: "699.99", imageURL: "https://images.unsplash.com/photo-1527443224154-c4a3942d3acf?w=400", stock: 30},
	{id: "prod-004", category: "cat-furniture", name: "Ergonomic Office Chair", description: "Adjustable lumbar support, breathable mesh, and 4D armrests.", price: "549.99", imageURL: "https://images.unsplash.com/photo-1592078615290-033ee584e267?w=400", stock: 25},
	{id: "prod-005", category: "cat-home", name: "Smart LED Desk Lamp", description: "Adjustable color temperature, brightness levels, and USB charging port.", price: "89.99", imageURL: "https://images.unsplash.com/photo-1507473885765-e6ed057ab6fe?w=400", stock: 200},
	{id: "prod-006", category: "cat-accessories", name: "Premium Laptop Backpack", description: "Water-resistant 17\" laptop compartment with anti-theft design.", price: "129.99", imageURL: "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400", stock: 80},
}

// SeedCatalog inserts a demo catalog when the store holds no categories yet.
func SeedCatalog(ctx context.Context, store repository.Store) error {
	return store.RunInTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		existing, err := tx.Categories().List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		for i := range seedCategories {
			c := seedCategories[i]
			if err := tx.Categories().Create(ctx, &c); err != nil {
				return fmt.Errorf("failed to seed category %s: %w", c.ID, err)
			}
		}

		now := time.Now().UTC()
		for _, sp := range seedProducts {
			p := &entity.Product{
				ID:            sp.id,
				CategoryID:    sp.category,
				Name:          sp.name,
				Description:   sp.description,
				Price:         decimal.RequireFromString(sp.price),
				StockQuantity: sp.stock,
				ImageURL:      sp.imageURL,
				CreatedDate:   now,
			}
			if err := tx.Products().Create(ctx, p); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
			}
		}

		slog.Info("Seeded catalog", "categories", len(seedCategories), "products", len(seedProducts))
		return nil
	})
}
