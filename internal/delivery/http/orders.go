package http

import (
	"net/http"
)

// CreateOrderRequest is accepted for compatibility with clients that send a confirmation flag.
// Checkout always uses the caller's current cart.
type CreateOrderRequest struct {
	Confirm *bool `json:"confirm,omitempty"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := identityFrom(r).UserID
	var req CreateOrderRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orderSvc.PlaceOrder(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(*order))
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListOrders(r.Context(), identityFrom(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderViews(orders))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.GetOrder(r.Context(), identityFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(*order))
}
