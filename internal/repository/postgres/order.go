package postgres

import (
	"context"
	"fmt"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

type orderRepository struct {
	q querier
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO orders (id, user_id, total_amount, status, created_at) VALUES ($1, $2, $3, $4, $5)",
		o.ID, o.UserID, o.TotalAmount, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = r.q.ExecContext(ctx,
			"INSERT INTO order_items (id, order_id, product_id, name, quantity, price_at_purchase) VALUES ($1, $2, $3, $4, $5, $6)",
			item.ID, o.ID, item.ProductID, item.Name, item.Quantity, item.PriceAtPurchase,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.queryOrders(ctx, "WHERE user_id = $1", userID)
}

func (r *orderRepository) GetForUser(ctx context.Context, userID, id string) (*entity.Order, error) {
	orders, err := r.queryOrders(ctx, "WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, entity.ErrNotFound
	}
	return &orders[0], nil
}

func (r *orderRepository) List(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	if f.Status != "" {
		return r.queryOrders(ctx, "WHERE status = $1", string(f.Status))
	}
	return r.queryOrders(ctx, "")
}

func (r *orderRepository) Get(ctx context.Context, id string) (*entity.Order, error) {
	orders, err := r.queryOrders(ctx, "WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, entity.ErrNotFound
	}
	return &orders[0], nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error {
	res, err := r.q.ExecContext(ctx, "UPDATE orders SET status = $2 WHERE id = $1", id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectOne(res, "order")
}

func (r *orderRepository) queryOrders(ctx context.Context, where string, args ...any) ([]entity.Order, error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT id, user_id, total_amount, status, created_at FROM orders "+where+" ORDER BY created_at DESC, id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	index := map[string]int{}
	for rows.Next() {
		var o entity.Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = entity.OrderStatus(status)
		o.Items = []entity.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	// Fetch items for all orders in one round trip.
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	in, itemArgs := inList(ids, 1)
	itemRows, err := r.q.QueryContext(ctx,
		"SELECT id, order_id, product_id, name, quantity, price_at_purchase FROM order_items WHERE order_id IN ("+in+") ORDER BY name, id",
		itemArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item entity.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.PriceAtPurchase); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		i, ok := index[item.OrderID]
		if !ok {
			return nil, fmt.Errorf("order item %s references unknown order %s", item.ID, item.OrderID)
		}
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return orders, nil
}
