package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
	"github.com/Ahmat91/Ecommerce-ALX/internal/metrics"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository/memory"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

func newCheckoutFixture(t *testing.T) (*memory.Store, *service.CartService, *service.OrderService, *recordingPublisher) {
	t.Helper()
	store := memory.NewStore()
	seedCategory(t, store, "cat-1", "Electronics")
	seedProduct(t, store, "laptop", "cat-1", "Laptop", "1000.00", 5)
	seedProduct(t, store, "mouse", "cat-1", "Mouse", "19.99", 10)
	pub := &recordingPublisher{}
	return store, service.NewCartService(store), service.NewOrderService(store, pub, nil, 3), pub
}

func TestPlaceOrder_Success(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, pub := newCheckoutFixture(t)

	line, err := carts.AddOrUpdate(ctx, "alice", "laptop", 3)
	require.NoError(t, err)
	assert.Equal(t, "3000.00", entity.LineTotal(line.Product.Price, line.Item.Quantity).StringFixed(2))

	order, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, "3000.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Laptop", order.Items[0].Name)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, "1000.00", order.Items[0].PriceAtPurchase.StringFixed(2))

	assert.Equal(t, 2, stockOf(t, store, "laptop"))
	lines, err := carts.ListItems(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, lines)

	placed := pub.byTopic(messaging.TopicOrdersPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, order.ID, placed[0].Key)

	changed := pub.byTopic(messaging.TopicStockChanged)
	require.Len(t, changed, 1)
	ev := stockEvent(t, changed[0])
	assert.Equal(t, "laptop", ev.ProductID)
	assert.Equal(t, 2, ev.NewStock)
	assert.Equal(t, "checkout", ev.Reason)
}

func TestPlaceOrder_StockEventReportsCheckoutLevel(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, pub := newCheckoutFixture(t)
	inventory := service.NewInventoryService(store, nil)

	// A restock lands between the commit and the stock event.
	pub.onPublish = func(topic string) {
		if topic == messaging.TopicOrdersPlaced {
			_, err := inventory.IncreaseStock(ctx, staff, []string{"laptop"}, 10)
			require.NoError(t, err)
		}
	}

	_, err := carts.AddOrUpdate(ctx, "alice", "laptop", 3)
	require.NoError(t, err)
	_, err = orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, 12, stockOf(t, store, "laptop"))
	changed := pub.byTopic(messaging.TopicStockChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, 2, stockEvent(t, changed[0]).NewStock)
}

func TestPlaceOrder_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, _ := newCheckoutFixture(t)
	catalog := service.NewCatalogService(store, nil)

	_, err := carts.AddOrUpdate(ctx, "alice", "mouse", 2)
	require.NoError(t, err)
	order, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	price := mustDecimal(t, "25.00")
	_, err = catalog.UpdateProduct(ctx, staff, "mouse", service.ProductInput{
		CategoryID: "cat-1", Name: "Mouse Pro", Description: "new", Price: &price, StockQuantity: 8,
	})
	require.NoError(t, err)

	got, err := orders.GetOrder(ctx, "alice", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", got.Items[0].PriceAtPurchase.StringFixed(2))
	assert.Equal(t, "Mouse", got.Items[0].Name)
	assert.Equal(t, "39.98", got.TotalAmount.StringFixed(2))
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	ctx := context.Background()
	store, _, orders, pub := newCheckoutFixture(t)

	_, err := orders.PlaceOrder(ctx, "alice")
	require.ErrorIs(t, err, entity.ErrEmptyCart)

	all, err := store.Orders().List(ctx, entity.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, pub.byTopic(messaging.TopicOrdersPlaced))
}

func TestPlaceOrder_StockReducedAfterAdd(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, pub := newCheckoutFixture(t)
	inventory := service.NewInventoryService(store, nil)

	_, err := carts.AddOrUpdate(ctx, "alice", "laptop", 4)
	require.NoError(t, err)
	_, err = inventory.DecreaseStock(ctx, staff, []string{"laptop"}, 3)
	require.NoError(t, err)

	_, err = orders.PlaceOrder(ctx, "alice")
	var stockErr *entity.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "laptop", stockErr.ProductID)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)

	assert.Equal(t, 2, stockOf(t, store, "laptop"))
	lines, err := carts.ListItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Item.Quantity)

	all, err := store.Orders().List(ctx, entity.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, pub.byTopic(messaging.TopicOrdersPlaced))
}

func TestPlaceOrder_MultiItemIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, _ := newCheckoutFixture(t)

	_, err := carts.AddOrUpdate(ctx, "alice", "laptop", 2)
	require.NoError(t, err)
	_, err = carts.AddOrUpdate(ctx, "alice", "mouse", 10)
	require.NoError(t, err)

	// Another shopper takes part of the mouse stock first.
	_, err = carts.AddOrUpdate(ctx, "bob", "mouse", 1)
	require.NoError(t, err)
	_, err = orders.PlaceOrder(ctx, "bob")
	require.NoError(t, err)

	_, err = orders.PlaceOrder(ctx, "alice")
	var stockErr *entity.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "mouse", stockErr.ProductID)

	assert.Equal(t, 5, stockOf(t, store, "laptop"))
	assert.Equal(t, 9, stockOf(t, store, "mouse"))
	lines, err := carts.ListItems(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestPlaceOrder_SucceedsAfterFailureIsResolved(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, _ := newCheckoutFixture(t)
	inventory := service.NewInventoryService(store, nil)

	_, err := carts.AddOrUpdate(ctx, "alice", "laptop", 5)
	require.NoError(t, err)
	_, err = inventory.DecreaseStock(ctx, staff, []string{"laptop"}, 1)
	require.NoError(t, err)

	_, err = orders.PlaceOrder(ctx, "alice")
	var stockErr *entity.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	_, err = inventory.IncreaseStock(ctx, staff, []string{"laptop"}, 10)
	require.NoError(t, err)

	order, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "5000.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, 9, stockOf(t, store, "laptop"))
}

func TestPlaceOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	ctx := context.Background()
	store, carts, orders, _ := newCheckoutFixture(t)

	const shoppers = 8
	for i := 0; i < shoppers; i++ {
		_, err := carts.AddOrUpdate(ctx, userName(i), "laptop", 5)
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := orders.PlaceOrder(ctx, user)
			mu.Lock()
			defer mu.Unlock()
			var stockErr *entity.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorAs(t, err, &stockErr):
				rejected++
			}
		}(userName(i))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, shoppers-1, rejected)
	assert.Equal(t, 0, stockOf(t, store, "laptop"))

	all, err := store.Orders().List(ctx, entity.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPlaceOrder_RetriesSerializationFailures(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	seedCategory(t, mem, "cat-1", "Electronics")
	seedProduct(t, mem, "laptop", "cat-1", "Laptop", "1000.00", 5)
	store := &flakyStore{Store: mem, failures: 2}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	carts := service.NewCartService(store)
	orders := service.NewOrderService(store, nil, m, 3)

	_, err := carts.AddOrUpdate(ctx, "alice", "laptop", 1)
	require.NoError(t, err)

	order, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 4, stockOf(t, mem, "laptop"))
}

func TestPlaceOrder_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	seedCategory(t, mem, "cat-1", "Electronics")
	seedProduct(t, mem, "laptop", "cat-1", "Laptop", "1000.00", 5)
	store := &flakyStore{Store: mem, failures: 10}

	carts := service.NewCartService(store)
	orders := service.NewOrderService(store, nil, nil, 2)
	_, err := carts.AddOrUpdate(ctx, "alice", "laptop", 1)
	require.NoError(t, err)

	_, err = orders.PlaceOrder(ctx, "alice")
	require.Error(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 5, stockOf(t, mem, "laptop"))
}

func TestPlaceOrder_EachCallCreatesNewOrder(t *testing.T) {
	ctx := context.Background()
	_, carts, orders, _ := newCheckoutFixture(t)

	_, err := carts.AddOrUpdate(ctx, "alice", "mouse", 1)
	require.NoError(t, err)
	first, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	_, err = carts.AddOrUpdate(ctx, "alice", "mouse", 1)
	require.NoError(t, err)
	second, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	list, err := orders.ListOrders(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetOrder_HidesOtherUsersOrders(t *testing.T) {
	ctx := context.Background()
	_, carts, orders, _ := newCheckoutFixture(t)

	_, err := carts.AddOrUpdate(ctx, "alice", "mouse", 1)
	require.NoError(t, err)
	order, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	_, err = orders.GetOrder(ctx, "bob", order.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)

	list, err := orders.ListOrders(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = orders.PlaceOrder(ctx, "")
	require.ErrorIs(t, err, entity.ErrUnauthenticated)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	_, carts, orders, pub := newCheckoutFixture(t)

	_, err := carts.AddOrUpdate(ctx, "alice", "mouse", 1)
	require.NoError(t, err)
	order, err := orders.PlaceOrder(ctx, "alice")
	require.NoError(t, err)

	_, err = orders.UpdateStatus(ctx, customer, order.ID, entity.OrderStatusShipped)
	require.ErrorIs(t, err, entity.ErrPermission)

	_, err = orders.UpdateStatus(ctx, staff, order.ID, "LOST")
	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)

	updated, err := orders.UpdateStatus(ctx, staff, order.ID, entity.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusShipped, updated.Status)

	shipped, err := orders.ListAllOrders(ctx, staff, entity.OrderFilter{Status: entity.OrderStatusShipped})
	require.NoError(t, err)
	require.Len(t, shipped, 1)
	assert.Equal(t, order.ID, shipped[0].ID)

	pending, err := orders.ListAllOrders(ctx, staff, entity.OrderFilter{Status: entity.OrderStatusPending})
	require.NoError(t, err)
	assert.Empty(t, pending)

	changes := pub.byTopic(messaging.TopicOrderStatusChanged)
	require.Len(t, changes, 1)
	ev := changes[0].Event.(entity.OrderStatusChanged)
	assert.Equal(t, entity.OrderStatusPending, ev.From)
	assert.Equal(t, entity.OrderStatusShipped, ev.To)

	_, err = orders.UpdateStatus(ctx, staff, "missing", entity.OrderStatusShipped)
	require.ErrorIs(t, err, entity.ErrNotFound)
}
