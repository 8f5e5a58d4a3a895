package repository

import (
	"context"
	"errors"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

var (
	// ErrStockGuard is returned by ProductRepository.DecrementStock when the row no longer holds enough stock.
	ErrStockGuard = errors.New("stock guard rejected decrement")
	// ErrSerialization marks a transaction aborted by the store because of a concurrent writer; it is safe to retry.
	ErrSerialization = errors.New("transaction serialization failure")
)

// CategoryRepository handles persistence for Categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]entity.Category, error)
	Get(ctx context.Context, id string) (*entity.Category, error)
	Create(ctx context.Context, c *entity.Category) error
	Update(ctx context.Context, c *entity.Category) error
	// Delete removes the category and cascades to its products and their cart items.
	Delete(ctx context.Context, id string) error
}

// ProductRepository handles persistence for Products. Returned products carry their Category.
type ProductRepository interface {
	List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	Get(ctx context.Context, id string) (*entity.Product, error)
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	// Delete fails with entity.ErrProductInUse when order items reference the product.
	Delete(ctx context.Context, id string) error

	// DecrementStock subtracts quantity only while stock_quantity >= quantity, else ErrStockGuard.
	// It returns the stock left on the row.
	DecrementStock(ctx context.Context, id string, quantity int) (int, error)
	// IncreaseStock adds amount to every listed product in one statement. Unknown ids are skipped.
	IncreaseStock(ctx context.Context, ids []string, amount int) ([]entity.StockAdjustment, error)
	// DecreaseStockClamped subtracts amount from each listed product, flooring at zero.
	// Each row's read-modify-write is atomic on its own.
	DecreaseStockClamped(ctx context.Context, ids []string, amount int) ([]entity.StockAdjustment, error)
}

// CartRepository handles persistence for CartItems. Every call is scoped to one user.
type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]entity.CartLine, error)
	GetForUser(ctx context.Context, userID, id string) (*entity.CartLine, error)
	// Upsert inserts the item or replaces the quantity of the user's existing row for the product.
	// item.ID is set to the id of the stored row.
	Upsert(ctx context.Context, item *entity.CartItem) error
	DeleteForUser(ctx context.Context, userID, id string) error
	// LockForCheckout loads the user's cart with current product rows and holds them until the
	// surrounding transaction ends. Only valid inside Store.RunInTx.
	LockForCheckout(ctx context.Context, userID string) ([]entity.CartLine, error)
	ClearForUser(ctx context.Context, userID string) (int, error)
}

// OrderRepository handles persistence for Orders and their items.
type OrderRepository interface {
	// Create stores the order together with its items.
	Create(ctx context.Context, o *entity.Order) error
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	GetForUser(ctx context.Context, userID, id string) (*entity.Order, error)
	List(ctx context.Context, filter entity.OrderFilter) ([]entity.Order, error)
	Get(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error
}

// Repositories groups the per-entity repositories bound to one connection or transaction.
type Repositories interface {
	Categories() CategoryRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
}

// Store is the transactional entry point into persistence.
type Store interface {
	Repositories
	// RunInTx runs fn in a single all-or-nothing transaction. Writes made through tx are
	// committed only if fn returns nil. Concurrent writers may make it fail with ErrSerialization.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
}
