package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

const categoriesKey = "catalog:categories"

// DefaultTTL bounds how long a cached category listing may be served.
const DefaultTTL = 5 * time.Minute

// CategoryCache keeps the category listing in Redis as a JSON array.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect parses a redis:// URL, pings the server and returns a ready client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	slog.Info("✅ Connected to Redis", "addr", opts.Addr)
	return client, nil
}

func NewCategoryCache(client *redis.Client, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CategoryCache{client: client, ttl: ttl}
}

func (c *CategoryCache) GetCategories(ctx context.Context) ([]entity.Category, bool, error) {
	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read categories from cache: %w", err)
	}

	var categories []entity.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached categories: %w", err)
	}
	return categories, true, nil
}

func (c *CategoryCache) SetCategories(ctx context.Context, categories []entity.Category) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	if err := c.client.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write categories to cache: %w", err)
	}
	return nil
}

func (c *CategoryCache) InvalidateCategories(ctx context.Context) error {
	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate categories: %w", err)
	}
	return nil
}
