package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

const (
	productColumns = "p.id, p.category_id, c.name, p.name, p.description, p.price, p.stock_quantity, p.image_url, p.created_date"
	productFrom    = "FROM products p JOIN categories c ON c.id = p.category_id"
)

var productSortColumns = map[entity.ProductOrdering]string{
	entity.OrderByName:        "p.name",
	entity.OrderByPrice:       "p.price",
	entity.OrderByStock:       "p.stock_quantity",
	entity.OrderByCreatedDate: "p.created_date",
}

type rowScanner interface {
	Scan(dest ...any) error
}

type productRepository struct {
	q querier
}

func scanProduct(row rowScanner, p *entity.Product) error {
	var imageURL sql.NullString
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Category.Name, &p.Name, &p.Description,
		&p.Price, &p.StockQuantity, &imageURL, &p.CreatedDate); err != nil {
		return err
	}
	p.Category.ID = p.CategoryID
	p.ImageURL = imageURL.String
	return nil
}

func (r *productRepository) List(ctx context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if f.StockQuantity != nil {
		args = append(args, *f.StockQuantity)
		where = append(where, fmt.Sprintf("p.stock_quantity = $%d", len(args)))
	}
	if f.InStock != nil {
		if *f.InStock {
			where = append(where, "p.stock_quantity > 0")
		} else {
			where = append(where, "p.stock_quantity = 0")
		}
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d OR c.name ILIKE $%d)", n, n, n))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + productColumns + " " + productFrom)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY " + orderClause(f.Ordering))

	rows, err := r.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		var p entity.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func orderClause(o entity.ProductOrdering) string {
	col, ok := productSortColumns[o.Field()]
	if !ok {
		col = productSortColumns[entity.OrderByName]
	}
	if o.Descending() {
		col += " DESC"
	}
	return col + ", p.id"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *productRepository) Get(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	row := r.q.QueryRowContext(ctx, "SELECT "+productColumns+" "+productFrom+" WHERE p.id = $1", id)
	if err := scanProduct(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO products (id, category_id, name, description, price, stock_quantity, image_url, created_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.StockQuantity, nullString(p.ImageURL), p.CreatedDate,
	)
	if isCode(err, codeForeignKeyViolation) {
		return entity.NewValidationError("category_id", "category %s does not exist", p.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE products
		 SET category_id = $2, name = $3, description = $4, price = $5, stock_quantity = $6, image_url = $7
		 WHERE id = $1`,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.StockQuantity, nullString(p.ImageURL),
	)
	if isCode(err, codeForeignKeyViolation) {
		return entity.NewValidationError("category_id", "category %s does not exist", p.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectOne(res, "product")
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if isCode(err, codeForeignKeyViolation) {
		return fmt.Errorf("product %s: %w", id, entity.ErrProductInUse)
	}
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectOne(res, "product")
}

func (r *productRepository) DecrementStock(ctx context.Context, id string, quantity int) (int, error) {
	var left int
	err := r.q.QueryRowContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity - $1 WHERE id = $2 AND stock_quantity >= $1 RETURNING stock_quantity",
		quantity, id,
	).Scan(&left)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("product %s: %w", id, repository.ErrStockGuard)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update product stock: %w", err)
	}
	return left, nil
}

func (r *productRepository) IncreaseStock(ctx context.Context, ids []string, amount int) ([]entity.StockAdjustment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inList(ids, 2)
	rows, err := r.q.QueryContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity + $1 WHERE id IN ("+in+") RETURNING id, stock_quantity",
		append([]any{amount}, args...)...,
	)
	if isCode(err, codeNumericOutOfRange) {
		return nil, entity.NewStockOverflowError("")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increase stock: %w", err)
	}
	defer rows.Close()

	var out []entity.StockAdjustment
	for rows.Next() {
		var a entity.StockAdjustment
		if err := rows.Scan(&a.ProductID, &a.Current); err != nil {
			return nil, fmt.Errorf("failed to scan stock adjustment: %w", err)
		}
		a.Previous = a.Current - amount
		out = append(out, a)
	}
	// pgx may only surface the overflow once the rows are read.
	if err := rows.Err(); isCode(err, codeNumericOutOfRange) {
		return nil, entity.NewStockOverflowError("")
	} else if err != nil {
		return nil, fmt.Errorf("error iterating stock adjustment rows: %w", err)
	}
	return out, nil
}

func (r *productRepository) DecreaseStockClamped(ctx context.Context, ids []string, amount int) ([]entity.StockAdjustment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inList(ids, 2)
	// The CTE locks each row before the single UPDATE reads it, so concurrent adjustments serialise per row.
	rows, err := r.q.QueryContext(ctx, `
		WITH prev AS (
			SELECT id, stock_quantity FROM products WHERE id IN (`+in+`) ORDER BY id FOR UPDATE
		)
		UPDATE products p
		SET stock_quantity = GREATEST(p.stock_quantity - $1, 0)
		FROM prev
		WHERE p.id = prev.id
		RETURNING p.id, prev.stock_quantity, p.stock_quantity`,
		append([]any{amount}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decrease stock: %w", err)
	}
	defer rows.Close()

	var out []entity.StockAdjustment
	for rows.Next() {
		var a entity.StockAdjustment
		if err := rows.Scan(&a.ProductID, &a.Previous, &a.Current); err != nil {
			return nil, fmt.Errorf("failed to scan stock adjustment: %w", err)
		}
		a.Clamped = a.Previous < amount
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock adjustment rows: %w", err)
	}
	return out, nil
}

// inList renders "$start, $start+1, ..." placeholders for ids.
func inList(ids []string, start int) (string, []any) {
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(ph, ", "), args
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
