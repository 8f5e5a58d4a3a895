package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

type categoryRepository struct {
	q querier
}

func (r *categoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.q.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []entity.Category{}
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Get(ctx context.Context, id string) (*entity.Category, error) {
	var c entity.Category
	err := r.q.QueryRowContext(ctx, "SELECT id, name FROM categories WHERE id = $1", id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", id, err)
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *entity.Category) error {
	_, err := r.q.ExecContext(ctx, "INSERT INTO categories (id, name) VALUES ($1, $2)", c.ID, c.Name)
	if isCode(err, codeUniqueViolation) {
		return fmt.Errorf("category %q: %w", c.Name, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *entity.Category) error {
	res, err := r.q.ExecContext(ctx, "UPDATE categories SET name = $2 WHERE id = $1", c.ID, c.Name)
	if isCode(err, codeUniqueViolation) {
		return fmt.Errorf("category %q: %w", c.Name, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectOne(res, "category")
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if isCode(err, codeForeignKeyViolation) {
		// A cascaded product still has order items.
		return fmt.Errorf("category %s: %w", id, entity.ErrProductInUse)
	}
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectOne(res, "category")
}

// expectOne maps a zero rows-affected result to entity.ErrNotFound.
func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected %s rows: %w", what, err)
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
