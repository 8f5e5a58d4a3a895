package http

import (
	"net/http"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

type stockRequest struct {
	ProductIDs []string `json:"product_ids"`
	Amount     *int     `json:"amount"`
}

func (req stockRequest) amount() int {
	if req.Amount == nil {
		return service.DefaultStockStep
	}
	return *req.Amount
}

type orderStatusRequest struct {
	Status entity.OrderStatus `json:"status"`
}

func (h *Handler) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	if !id.Authenticated() {
		writeError(w, r, entity.ErrUnauthenticated)
		return
	}
	if !id.IsStaff {
		writeError(w, r, entity.ErrPermission)
		return
	}

	products, err := h.listProducts(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]adminProductView, 0, len(products))
	for _, p := range products {
		out = append(out, adminProductView{productView: newProductView(p), ImageTag: imageTag(p.ImageURL)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleIncreaseStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.inventorySvc.IncreaseStock(r.Context(), identityFrom(r), req.ProductIDs, req.amount())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStockReportView(report))
}

func (h *Handler) handleDecreaseStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.inventorySvc.DecreaseStock(r.Context(), identityFrom(r), req.ProductIDs, req.amount())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, decreaseReportView{stockReportView: newStockReportView(report), Clamped: report.Clamped})
}

func (h *Handler) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	filter := entity.OrderFilter{Status: entity.OrderStatus(r.URL.Query().Get("status"))}
	orders, err := h.orderSvc.ListAllOrders(r.Context(), identityFrom(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderViews(orders))
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.orderSvc.UpdateStatus(r.Context(), identityFrom(r), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(*order))
}
