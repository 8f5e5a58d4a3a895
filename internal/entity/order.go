package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceDecimals is the number of fractional digits kept for every monetary amount.
const PriceDecimals = 2

// LineTotal returns price * quantity rounded to PriceDecimals.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(PriceDecimals)
}

// CartTotal sums the line totals of lines using the prices they carry.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.Product.Price, l.Item.Quantity))
	}
	return total
}

// SnapshotItem copies the product fields an order item must keep forever.
func SnapshotItem(id, orderID string, line CartLine) OrderItem {
	return OrderItem{
		ID:              id,
		OrderID:         orderID,
		ProductID:       line.Product.ID,
		Name:            line.Product.Name,
		Quantity:        line.Item.Quantity,
		PriceAtPurchase: line.Product.Price,
	}
}

// NewOrder materialises a pending order from cart lines. newID supplies item ids.
func NewOrder(id, userID string, lines []CartLine, now time.Time, newID func() string) *Order {
	o := &Order{
		ID:          id,
		UserID:      userID,
		TotalAmount: CartTotal(lines),
		Status:      OrderStatusPending,
		CreatedAt:   now,
		Items:       make([]OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		o.Items = append(o.Items, SnapshotItem(newID(), id, l))
	}
	return o
}

// CheckStock returns an InsufficientStockError for the first line whose quantity exceeds stock.
func CheckStock(lines []CartLine) error {
	for _, l := range lines {
		if l.Item.Quantity > l.Product.StockQuantity {
			return &InsufficientStockError{
				ProductID:   l.Product.ID,
				ProductName: l.Product.Name,
				Requested:   l.Item.Quantity,
				Available:   l.Product.StockQuantity,
			}
		}
	}
	return nil
}
