package entity

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MaxStock is the largest stock_quantity a product can hold; the column is a 32-bit INT.
const MaxStock = math.MaxInt32

// NewStockOverflowError reports an adjustment that would push stock past MaxStock.
// productID may be empty when the store cannot tell which row overflowed.
func NewStockOverflowError(productID string) *ValidationError {
	if productID == "" {
		return NewValidationError("amount", "would raise stock above %d", MaxStock)
	}
	return NewValidationError("amount", "would raise stock of product %s above %d", productID, MaxStock)
}

// Product represents a product in the store.
type Product struct {
	ID            string          `json:"id"`
	CategoryID    string          `json:"category_id"`
	Category      Category        `json:"category"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url,omitempty"`
	CreatedDate   time.Time       `json:"created_date"`
}

// CartItem is a user's desired quantity of one product. At most one exists per (user, product).
type CartItem struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartLine is a cart item joined with the product it points at.
type CartLine struct {
	Item    CartItem
	Product Product
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem is an immutable snapshot of one purchased product.
type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// Order represents a customer order.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductOrdering names a sortable product column; a leading "-" means descending.
type ProductOrdering string

const (
	OrderByName        ProductOrdering = "name"
	OrderByPrice       ProductOrdering = "price"
	OrderByStock       ProductOrdering = "stock_quantity"
	OrderByCreatedDate ProductOrdering = "created_date"
)

const orderingDescPrefix = "-"

// Field returns the column without the direction prefix.
func (o ProductOrdering) Field() ProductOrdering {
	if o.Descending() {
		return o[len(orderingDescPrefix):]
	}
	return o
}

// Descending reports whether the ordering is reversed.
func (o ProductOrdering) Descending() bool {
	return strings.HasPrefix(string(o), orderingDescPrefix)
}

// Valid reports whether the ordering refers to a sortable column.
func (o ProductOrdering) Valid() bool {
	switch o.Field() {
	case OrderByName, OrderByPrice, OrderByStock, OrderByCreatedDate:
		return true
	}
	return false
}

// ProductFilter narrows a product listing. Zero values mean "no constraint".
type ProductFilter struct {
	CategoryID    string
	StockQuantity *int
	InStock       *bool
	Search        string
	Ordering      ProductOrdering
}

// OrderFilter narrows the administrative order listing.
type OrderFilter struct {
	Status OrderStatus
}

// StockAdjustment records the effect of a bulk stock change on one product.
type StockAdjustment struct {
	ProductID string `json:"product_id"`
	Previous  int    `json:"previous"`
	Current   int    `json:"current"`
	Clamped   bool   `json:"clamped"`
}

// Identity is the authenticated caller. An empty UserID means anonymous.
type Identity struct {
	UserID  string
	IsStaff bool
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}
