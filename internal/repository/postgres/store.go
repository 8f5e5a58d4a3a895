package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repositories struct {
	q querier
}

func (r repositories) Categories() repository.CategoryRepository { return &categoryRepository{q: r.q} }
func (r repositories) Products() repository.ProductRepository    { return &productRepository{q: r.q} }
func (r repositories) Carts() repository.CartRepository          { return &cartRepository{q: r.q} }
func (r repositories) Orders() repository.OrderRepository        { return &orderRepository{q: r.q} }

// Store is a repository.Store backed by Postgres.
type Store struct {
	repositories
	db *sql.DB
}

// NewStore creates a new Store on top of an open pool.
func NewStore(db *sql.DB) *Store {
	return &Store{repositories: repositories{q: db}, db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunInTx runs fn inside a READ COMMITTED transaction. Isolation between concurrent checkouts
// comes from the row locks taken by CartRepository.LockForCheckout, which are held until commit.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", retryable(err))
	}
	defer tx.Rollback()

	if err := fn(ctx, repositories{q: tx}); err != nil {
		return retryable(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", retryable(err))
	}
	return nil
}
