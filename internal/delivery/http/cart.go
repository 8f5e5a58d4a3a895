package http

import (
	"net/http"
)

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleListCart(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cartSvc.ListItems(r.Context(), identityFrom(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(lines))
}

func (h *Handler) handleGetCartItem(w http.ResponseWriter, r *http.Request) {
	line, err := h.cartSvc.GetItem(r.Context(), identityFrom(r).UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartItemView(*line))
}

// handleSetCartItem creates the item or replaces its quantity.
func (h *Handler) handleSetCartItem(w http.ResponseWriter, r *http.Request) {
	userID := identityFrom(r).UserID
	var req cartItemRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	line, err := h.cartSvc.AddOrUpdate(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCartItemView(*line))
}

func (h *Handler) handleDeleteCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.cartSvc.RemoveItem(r.Context(), identityFrom(r).UserID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
