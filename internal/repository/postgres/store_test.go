package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository/postgres"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

// openTestStore connects to TEST_DATABASE_URL with each supported driver and empties the tables.
func openTestStore(t *testing.T, driver string) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := postgres.InitDB(ctx, driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	truncate(t, db)
	return postgres.NewStore(db)
}

func truncate(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE order_items, orders, cart_items, products, categories`)
	require.NoError(t, err)
}

func forEachDriver(t *testing.T, fn func(t *testing.T, store *postgres.Store)) {
	for _, driver := range []string{postgres.DriverPQ, postgres.DriverPGX} {
		t.Run(driver, func(t *testing.T) {
			fn(t, openTestStore(t, driver))
		})
	}
}

func seed(t *testing.T, store *postgres.Store, stock int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Categories().Create(ctx, &entity.Category{ID: "c1", Name: "Electronics"}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "p1", CategoryID: "c1", Name: "Laptop", Description: "Thin and light",
		Price: decimal.RequireFromString("1000.00"), StockQuantity: stock, CreatedDate: time.Now().UTC(),
	}))
}

func TestCheckout_Postgres(t *testing.T) {
	forEachDriver(t, func(t *testing.T, store *postgres.Store) {
		ctx := context.Background()
		seed(t, store, 5)
		carts := service.NewCartService(store)
		orders := service.NewOrderService(store, nil, nil, 3)

		_, err := carts.AddOrUpdate(ctx, "alice", "p1", 3)
		require.NoError(t, err)
		order, err := orders.PlaceOrder(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "3000.00", order.TotalAmount.StringFixed(2))

		got, err := orders.GetOrder(ctx, "alice", order.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "1000.00", got.Items[0].PriceAtPurchase.StringFixed(2))

		p, err := store.Products().Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 2, p.StockQuantity)

		require.ErrorIs(t, store.Products().Delete(ctx, "p1"), entity.ErrProductInUse)
	})
}

func TestCheckout_ConcurrentPostgres(t *testing.T) {
	forEachDriver(t, func(t *testing.T, store *postgres.Store) {
		ctx := context.Background()
		const shoppers = 6
		seed(t, store, 4)
		carts := service.NewCartService(store)
		orders := service.NewOrderService(store, nil, nil, 3)

		for i := 0; i < shoppers; i++ {
			_, err := carts.AddOrUpdate(ctx, fmt.Sprintf("user-%d", i), "p1", 4)
			require.NoError(t, err)
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < shoppers; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				_, err := orders.PlaceOrder(ctx, user)
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
					return
				}
				var stockErr *entity.InsufficientStockError
				assert.ErrorAs(t, err, &stockErr)
			}(fmt.Sprintf("user-%d", i))
		}
		wg.Wait()

		assert.Equal(t, 1, succeeded)
		p, err := store.Products().Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 0, p.StockQuantity)
	})
}

func TestBulkStock_Postgres(t *testing.T) {
	forEachDriver(t, func(t *testing.T, store *postgres.Store) {
		ctx := context.Background()
		seed(t, store, 4)

		adj, err := store.Products().DecreaseStockClamped(ctx, []string{"p1", "missing"}, 10)
		require.NoError(t, err)
		require.Len(t, adj, 1)
		assert.Equal(t, entity.StockAdjustment{ProductID: "p1", Previous: 4, Current: 0, Clamped: true}, adj[0])

		adj, err = store.Products().IncreaseStock(ctx, []string{"p1"}, 10)
		require.NoError(t, err)
		require.Len(t, adj, 1)
		assert.Equal(t, 10, adj[0].Current)
	})
}

func TestStockLimits_Postgres(t *testing.T) {
	forEachDriver(t, func(t *testing.T, store *postgres.Store) {
		ctx := context.Background()
		seed(t, store, 5)

		left, err := store.Products().DecrementStock(ctx, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, 3, left)

		_, err = store.Products().IncreaseStock(ctx, []string{"p1"}, entity.MaxStock)
		var vErr *entity.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "amount", vErr.Field)

		p, err := store.Products().Get(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 3, p.StockQuantity)
	})
}

func TestProducts_ListPostgres(t *testing.T) {
	forEachDriver(t, func(t *testing.T, store *postgres.Store) {
		ctx := context.Background()
		seed(t, store, 0)

		inStock := true
		list, err := store.Products().List(ctx, entity.ProductFilter{InStock: &inStock})
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = store.Products().List(ctx, entity.ProductFilter{Search: "electro", Ordering: "-price"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Electronics", list[0].Category.Name)

		err = store.Categories().Create(ctx, &entity.Category{ID: "c2", Name: "Electronics"})
		require.ErrorIs(t, err, entity.ErrConflict)
	})
}
