package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a domain event.
type Event interface {
	EventType() string
}

// OrderPlaced is emitted after a checkout commits.
type OrderPlaced struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PlacedAt    time.Time       `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }

// ProductStockChanged is emitted when a product's stock changes through checkout or an admin action.
type ProductStockChanged struct {
	ProductID string    `json:"product_id"`
	NewStock  int       `json:"new_stock"`
	Reason    string    `json:"reason"` // "checkout", "admin_increase", "admin_decrease"
	ChangedAt time.Time `json:"changed_at"`
}

func (e ProductStockChanged) EventType() string { return "ProductStockChanged" }

// OrderStatusChanged is emitted when staff move an order to another status.
type OrderStatusChanged struct {
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ChangedAt time.Time   `json:"changed_at"`
}

func (e OrderStatusChanged) EventType() string { return "OrderStatusChanged" }
