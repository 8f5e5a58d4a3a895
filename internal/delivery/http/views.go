package http

import (
	"fmt"
	"html"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(entity.PriceDecimals)
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productView struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Price          string       `json:"price"`
	StockQuantity  int          `json:"stock_quantity"`
	ImageURL       *string      `json:"image_url"`
	CreatedDate    time.Time    `json:"created_date"`
	CategoryID     string       `json:"category_id"`
	CategoryDetail categoryView `json:"category_detail"`
	IsInStock      bool         `json:"is_in_stock"`
}

func newProductView(p entity.Product) productView {
	v := productView{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          money(p.Price),
		StockQuantity:  p.StockQuantity,
		CreatedDate:    p.CreatedDate,
		CategoryID:     p.CategoryID,
		CategoryDetail: categoryView{ID: p.Category.ID, Name: p.Category.Name},
		IsInStock:      p.StockQuantity > 0,
	}
	if p.ImageURL != "" {
		url := p.ImageURL
		v.ImageURL = &url
	}
	return v
}

type adminProductView struct {
	productView
	ImageTag string `json:"image_tag"`
}

// imageTag renders the thumbnail shown in the admin product list.
func imageTag(url string) string {
	if url == "" {
		return "No Image"
	}
	return fmt.Sprintf(`<img src="%s" style="width: 100px; height: auto;" />`, html.EscapeString(url))
}

type cartItemView struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	Product   productView `json:"product"`
	Quantity  int         `json:"quantity"`
	SubTotal  string      `json:"sub_total"`
}

func newCartItemView(l entity.CartLine) cartItemView {
	return cartItemView{
		ID:        l.Item.ID,
		ProductID: l.Item.ProductID,
		Product:   newProductView(l.Product),
		Quantity:  l.Item.Quantity,
		SubTotal:  money(entity.LineTotal(l.Product.Price, l.Item.Quantity)),
	}
}

type cartView struct {
	Items []cartItemView `json:"items"`
	Total string         `json:"total"`
}

func newCartView(lines []entity.CartLine) cartView {
	v := cartView{Items: make([]cartItemView, 0, len(lines)), Total: money(entity.CartTotal(lines))}
	for _, l := range lines {
		v.Items = append(v.Items, newCartItemView(l))
	}
	return v
}

type orderItemView struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
	SubTotal        string `json:"sub_total"`
}

type orderView struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount string          `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []orderItemView `json:"items"`
}

func newOrderView(o entity.Order) orderView {
	v := orderView{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalAmount: money(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		Items:       make([]orderItemView, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: money(it.PriceAtPurchase),
			SubTotal:        money(entity.LineTotal(it.PriceAtPurchase, it.Quantity)),
		})
	}
	return v
}

func newOrderViews(orders []entity.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	return out
}

type stockReportView struct {
	Updated     int                      `json:"updated"`
	Message     string                   `json:"message"`
	Adjustments []entity.StockAdjustment `json:"adjustments"`
}

func newStockReportView(r *service.StockReport) stockReportView {
	v := stockReportView{Updated: r.Updated, Message: r.Message, Adjustments: r.Adjustments}
	if v.Adjustments == nil {
		v.Adjustments = []entity.StockAdjustment{}
	}
	return v
}

// decreaseReportView also names the products that were floored at zero.
type decreaseReportView struct {
	stockReportView
	Clamped []string `json:"clamped"`
}
