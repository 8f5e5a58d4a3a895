package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogSvc.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryView{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalogSvc.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView{ID: c.ID, Name: c.Name})
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalogSvc.CreateCategory(r.Context(), identityFrom(r), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryView{ID: c.ID, Name: c.Name})
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.catalogSvc.UpdateCategory(r.Context(), identityFrom(r), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoryView{ID: c.ID, Name: c.Name})
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogSvc.DeleteCategory(r.Context(), identityFrom(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type productRequest struct {
	CategoryID    string           `json:"category_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity int              `json:"stock_quantity"`
	ImageURL      *string          `json:"image_url"`
}

func (req productRequest) input() service.ProductInput {
	in := service.ProductInput{
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if req.ImageURL != nil {
		in.ImageURL = *req.ImageURL
	}
	return in
}

// productFilter reads the listing query parameters shared by the public and admin product lists.
func productFilter(q url.Values) (entity.ProductFilter, error) {
	f := entity.ProductFilter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
		Ordering:   entity.ProductOrdering(q.Get("ordering")),
	}
	if v := q.Get("stock_quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, entity.NewValidationError("stock_quantity", "must be an integer")
		}
		f.StockQuantity = &n
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, entity.NewValidationError("in_stock", "must be true or false")
		}
		f.InStock = &b
	}
	return f, nil
}

func (h *Handler) listProducts(r *http.Request) ([]entity.Product, error) {
	filter, err := productFilter(r.URL.Query())
	if err != nil {
		return nil, err
	}
	return h.catalogSvc.ListProducts(r.Context(), filter)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.listProducts(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, newProductView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalogSvc.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(*p))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalogSvc.CreateProduct(r.Context(), identityFrom(r), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductView(*p))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.catalogSvc.UpdateProduct(r.Context(), identityFrom(r), r.PathValue("id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(*p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogSvc.DeleteProduct(r.Context(), identityFrom(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
