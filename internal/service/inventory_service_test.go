package service_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository/memory"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

func newInventoryFixture(t *testing.T) (*memory.Store, *service.InventoryService, *recordingPublisher) {
	t.Helper()
	store := memory.NewStore()
	seedCategory(t, store, "cat-1", "Electronics")
	seedProduct(t, store, "a", "cat-1", "A", "1.00", 4)
	seedProduct(t, store, "b", "cat-1", "B", "1.00", 25)
	pub := &recordingPublisher{}
	return store, service.NewInventoryService(store, pub), pub
}

func TestDecreaseStock_ClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store, inventory, pub := newInventoryFixture(t)

	report, err := inventory.DecreaseStock(ctx, staff, []string{"a", "b"}, service.DefaultStockStep)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, []string{"a"}, report.Clamped)
	assert.Equal(t, 0, stockOf(t, store, "a"))
	assert.Equal(t, 15, stockOf(t, store, "b"))

	events := pub.byTopic(messaging.TopicStockChanged)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "admin_decrease", stockEvent(t, e).Reason)
	}
}

func TestIncreaseStock(t *testing.T) {
	ctx := context.Background()
	store, inventory, pub := newInventoryFixture(t)

	report, err := inventory.IncreaseStock(ctx, staff, []string{"a", "b", "a", "missing"}, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Empty(t, report.Clamped)
	assert.Equal(t, "2 product(s) stock successfully increased by 10 units.", report.Message)
	assert.Equal(t, 14, stockOf(t, store, "a"))
	assert.Equal(t, 35, stockOf(t, store, "b"))
	assert.Len(t, pub.byTopic(messaging.TopicStockChanged), 2)
}

func TestBulkStock_RequiresStaffAndInput(t *testing.T) {
	ctx := context.Background()
	store, inventory, _ := newInventoryFixture(t)

	_, err := inventory.IncreaseStock(ctx, customer, []string{"a"}, 10)
	require.ErrorIs(t, err, entity.ErrPermission)
	_, err = inventory.DecreaseStock(ctx, entity.Identity{}, []string{"a"}, 10)
	require.ErrorIs(t, err, entity.ErrUnauthenticated)

	var vErr *entity.ValidationError
	_, err = inventory.IncreaseStock(ctx, staff, []string{"a"}, 0)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)

	_, err = inventory.DecreaseStock(ctx, staff, []string{" ", ""}, 10)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "product_ids", vErr.Field)

	assert.Equal(t, 4, stockOf(t, store, "a"))
}

func TestIncreaseStock_RejectsOverflow(t *testing.T) {
	ctx := context.Background()
	store, inventory, pub := newInventoryFixture(t)

	var vErr *entity.ValidationError
	_, err := inventory.IncreaseStock(ctx, staff, []string{"a"}, math.MaxInt)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)

	_, err = inventory.DecreaseStock(ctx, staff, []string{"a"}, entity.MaxStock+1)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)

	// a fits, b does not: neither row moves.
	_, err = inventory.IncreaseStock(ctx, staff, []string{"a", "b"}, entity.MaxStock-10)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
	assert.Equal(t, 4, stockOf(t, store, "a"))
	assert.Equal(t, 25, stockOf(t, store, "b"))
	assert.Empty(t, pub.byTopic(messaging.TopicStockChanged))

	report, err := inventory.IncreaseStock(ctx, staff, []string{"a"}, entity.MaxStock-4)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, entity.MaxStock, stockOf(t, store, "a"))
}
