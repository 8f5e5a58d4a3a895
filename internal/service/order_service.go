package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
	"github.com/Ahmat91/Ecommerce-ALX/internal/metrics"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

// DefaultCheckoutAttempts bounds how often a checkout is retried after a serialization failure.
const DefaultCheckoutAttempts = 3

// OrderService turns carts into orders and serves order history.
type OrderService struct {
	store       repository.Store
	publisher   messaging.Publisher
	metrics     *metrics.Metrics
	maxAttempts int
	now         func() time.Time
}

func NewOrderService(
	store repository.Store,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	maxAttempts int,
) *OrderService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultCheckoutAttempts
	}
	return &OrderService{
		store:       store,
		publisher:   publisher,
		metrics:     m,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// PlaceOrder converts the user's cart into a new order. Stock is re-validated against the
// locked product rows, deducted, and the cart emptied in the same transaction; on any
// failure nothing is written. Each successful call creates a distinct order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string) (*entity.Order, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	slog.Info("Service: Placing order", "user_id", userID)
	start := time.Now()

	var (
		order *entity.Order
		stock map[string]int
		err   error
	)
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		order, stock, err = s.checkout(ctx, userID)
		if !errors.Is(err, repository.ErrSerialization) || attempt == s.maxAttempts {
			break
		}
		s.metrics.CheckoutRetried()
		slog.Warn("Checkout conflicted with a concurrent transaction, retrying", "user_id", userID, "attempt", attempt, "err", err)
	}
	s.metrics.ObserveCheckout(checkoutOutcome(err), time.Since(start))

	if err != nil {
		var stockErr *entity.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			slog.Warn("Checkout rejected: insufficient stock", "user_id", userID, "product_id", stockErr.ProductID,
				"requested", stockErr.Requested, "available", stockErr.Available)
		case errors.Is(err, entity.ErrEmptyCart):
			slog.Warn("Checkout rejected: empty cart", "user_id", userID)
		default:
			slog.Error("Checkout failed", "user_id", userID, "err", err)
		}
		return nil, err
	}

	slog.Info("✅ Order placed", "order_id", order.ID, "user_id", userID, "total", order.TotalAmount.StringFixed(entity.PriceDecimals))
	s.publishPlaced(ctx, order, stock)
	return order, nil
}

// checkout runs one attempt. Besides the order it returns the stock left on each product,
// as read by the transaction that deducted it.
func (s *OrderService) checkout(ctx context.Context, userID string) (*entity.Order, map[string]int, error) {
	var (
		placed *entity.Order
		stock  map[string]int
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		lines, err := tx.Carts().LockForCheckout(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return entity.ErrEmptyCart
		}

		order := entity.NewOrder(uuid.NewString(), userID, lines, s.now().UTC(), uuid.NewString)
		if err := entity.CheckStock(lines); err != nil {
			return err
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		left := make(map[string]int, len(lines))
		for _, l := range lines {
			n, err := tx.Products().DecrementStock(ctx, l.Product.ID, l.Item.Quantity)
			if errors.Is(err, repository.ErrStockGuard) {
				return &entity.InsufficientStockError{
					ProductID:   l.Product.ID,
					ProductName: l.Product.Name,
					Requested:   l.Item.Quantity,
					Available:   l.Product.StockQuantity,
				}
			}
			if err != nil {
				return err
			}
			left[l.Product.ID] = n
		}
		if _, err := tx.Carts().ClearForUser(ctx, userID); err != nil {
			return err
		}

		placed, stock = order, left
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return placed, stock, nil
}

func checkoutOutcome(err error) string {
	var stockErr *entity.InsufficientStockError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, entity.ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.As(err, &stockErr):
		return metrics.OutcomeInsufficientStock
	default:
		return metrics.OutcomeError
	}
}

// publishPlaced announces a committed order. Failures are logged; the order stands.
func (s *OrderService) publishPlaced(ctx context.Context, order *entity.Order, stock map[string]int) {
	placed := entity.OrderPlaced{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount,
		PlacedAt:    order.CreatedAt,
	}
	if err := s.publisher.PublishEvent(ctx, messaging.TopicOrdersPlaced, order.ID, placed); err != nil {
		slog.Error("Failed to publish OrderPlaced", "order_id", order.ID, "err", err)
	}

	for _, item := range order.Items {
		publishStockChanged(ctx, s.publisher, item.ProductID, stock[item.ProductID], "checkout", order.CreatedAt)
	}
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]entity.Order, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Orders().ListByUser(ctx, userID)
}

// GetOrder returns one of the user's orders; another user's order is reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*entity.Order, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.Orders().GetForUser(ctx, userID, id)
}

// ListAllOrders is the staff view over every user's orders.
func (s *OrderService) ListAllOrders(ctx context.Context, actor entity.Identity, filter entity.OrderFilter) ([]entity.Order, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, entity.NewValidationError("status", "unknown status %q", filter.Status)
	}
	return s.store.Orders().List(ctx, filter)
}

// UpdateStatus moves an order to status. Only staff may do this.
func (s *OrderService) UpdateStatus(ctx context.Context, actor entity.Identity, id string, status entity.OrderStatus) (*entity.Order, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, entity.NewValidationError("status", "unknown status %q", status)
	}

	var (
		updated *entity.Order
		from    entity.OrderStatus
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		o, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		from = o.Status
		if err := tx.Orders().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		o.Status = status
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if from != status {
		event := entity.OrderStatusChanged{OrderID: id, From: from, To: status, ChangedAt: s.now()}
		if err := s.publisher.PublishEvent(ctx, messaging.TopicOrderStatusChanged, id, event); err != nil {
			slog.Error("Failed to publish OrderStatusChanged", "order_id", id, "err", err)
		}
		slog.Info("Order status changed", "order_id", id, "from", from, "to", status, "by", actor.UserID)
	}
	return updated, nil
}

func publishStockChanged(ctx context.Context, pub messaging.Publisher, productID string, stock int, reason string, at time.Time) {
	event := entity.ProductStockChanged{ProductID: productID, NewStock: stock, Reason: reason, ChangedAt: at}
	if err := pub.PublishEvent(ctx, messaging.TopicStockChanged, productID, event); err != nil {
		slog.Error("Failed to publish ProductStockChanged", "product_id", productID, "err", err)
	}
}
