package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository/memory"
)

var (
	staff    = entity.Identity{UserID: "admin", IsStaff: true}
	customer = entity.Identity{UserID: "alice"}
)

type published struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
	// onPublish, when set, runs after each event is recorded.
	onPublish func(topic string)
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	p.events = append(p.events, published{Topic: topic, Key: key, Event: event})
	hook, err := p.onPublish, p.err
	p.mu.Unlock()

	if hook != nil {
		hook(topic)
	}
	return err
}

func (p *recordingPublisher) byTopic(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// flakyStore fails the first n transactions with a serialization error.
type flakyStore struct {
	*memory.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakyStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()
	if fail {
		return repository.ErrSerialization
	}
	return s.Store.RunInTx(ctx, fn)
}

func seedCategory(t *testing.T, store repository.Store, id, name string) {
	t.Helper()
	require.NoError(t, store.Categories().Create(context.Background(), &entity.Category{ID: id, Name: name}))
}

func seedProduct(t *testing.T, store repository.Store, id, categoryID, name, price string, stock int) {
	t.Helper()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID:            id,
		CategoryID:    categoryID,
		Name:          name,
		Description:   name + " description",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		CreatedDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func stockOf(t *testing.T, store repository.Store, id string) int {
	t.Helper()
	p, err := store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func stockEvent(t *testing.T, e published) entity.ProductStockChanged {
	t.Helper()
	ev, ok := e.Event.(entity.ProductStockChanged)
	require.True(t, ok, "unexpected event %T", e.Event)
	return ev
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func userName(i int) string {
	return fmt.Sprintf("user-%d", i)
}
