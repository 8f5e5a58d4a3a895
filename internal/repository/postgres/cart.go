package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

const cartLineSelect = "SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, " + productColumns + `
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	JOIN categories c ON c.id = p.category_id`

type cartRepository struct {
	q querier
}

func scanCartLine(row rowScanner, l *entity.CartLine) error {
	var imageURL sql.NullString
	p := &l.Product
	if err := row.Scan(&l.Item.ID, &l.Item.UserID, &l.Item.ProductID, &l.Item.Quantity,
		&p.ID, &p.CategoryID, &p.Category.Name, &p.Name, &p.Description,
		&p.Price, &p.StockQuantity, &imageURL, &p.CreatedDate); err != nil {
		return err
	}
	p.Category.ID = p.CategoryID
	p.ImageURL = imageURL.String
	return nil
}

func (r *cartRepository) queryLines(ctx context.Context, query string, args ...any) ([]entity.CartLine, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	lines := []entity.CartLine{}
	for rows.Next() {
		var l entity.CartLine
		if err := scanCartLine(rows, &l); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart item rows: %w", err)
	}
	return lines, nil
}

func (r *cartRepository) ListByUser(ctx context.Context, userID string) ([]entity.CartLine, error) {
	return r.queryLines(ctx, cartLineSelect+" WHERE ci.user_id = $1 ORDER BY p.name, ci.id", userID)
}

func (r *cartRepository) GetForUser(ctx context.Context, userID, id string) (*entity.CartLine, error) {
	var l entity.CartLine
	row := r.q.QueryRowContext(ctx, cartLineSelect+" WHERE ci.user_id = $1 AND ci.id = $2", userID, id)
	if err := scanCartLine(row, &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart item %s: %w", id, err)
	}
	return &l, nil
}

func (r *cartRepository) Upsert(ctx context.Context, item *entity.CartItem) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		 RETURNING id`,
		item.ID, item.UserID, item.ProductID, item.Quantity,
	).Scan(&item.ID)
	if isCode(err, codeForeignKeyViolation) {
		return entity.NewValidationError("product_id", "product %s does not exist", item.ProductID)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (r *cartRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return expectOne(res, "cart item")
}

// LockForCheckout takes FOR UPDATE locks on the user's cart rows and the product rows they
// reference, in product id order so that overlapping checkouts cannot deadlock. A concurrent
// checkout of the same cart blocks here and then sees the rows already deleted.
func (r *cartRepository) LockForCheckout(ctx context.Context, userID string) ([]entity.CartLine, error) {
	return r.queryLines(ctx, cartLineSelect+" WHERE ci.user_id = $1 ORDER BY p.id FOR UPDATE OF ci, p", userID)
}

func (r *cartRepository) ClearForUser(ctx context.Context, userID string) (int, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected cart rows: %w", err)
	}
	return int(n), nil
}
