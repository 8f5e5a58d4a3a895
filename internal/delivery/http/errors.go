package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Ahmat91/Ecommerce-ALX/internal/auth"
	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Field     string `json:"field,omitempty"`
	ProductID string `json:"product_id,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

// writeError translates a domain error into a client response. Anything unrecognised is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *entity.ValidationError
		stockErr      *entity.InsufficientStockError
	)

	status := http.StatusInternalServerError
	body := errorResponse{Error: "internal server error", Code: "internal"}

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		body = errorResponse{Error: validationErr.Message, Code: "validation_error", Field: validationErr.Field}
	case errors.As(err, &stockErr):
		status = http.StatusBadRequest
		available := stockErr.Available
		body = errorResponse{
			Error:     stockErr.Error(),
			Code:      "insufficient_stock",
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: &available,
		}
	case errors.Is(err, entity.ErrEmptyCart):
		status = http.StatusBadRequest
		body = errorResponse{Error: err.Error(), Code: "empty_cart"}
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
		body = errorResponse{Error: "not found", Code: "not_found"}
	case errors.Is(err, entity.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		body = errorResponse{Error: err.Error(), Code: "unauthenticated"}
	case errors.Is(err, entity.ErrPermission):
		status = http.StatusForbidden
		body = errorResponse{Error: err.Error(), Code: "permission_denied"}
	case errors.Is(err, entity.ErrProductInUse):
		status = http.StatusConflict
		body = errorResponse{Error: err.Error(), Code: "product_in_use"}
	case errors.Is(err, entity.ErrConflict):
		status = http.StatusConflict
		body = errorResponse{Error: err.Error(), Code: "conflict"}
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

// decodeJSON reads the request body into v. An empty body is allowed when optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	if r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return entity.NewValidationError("", "request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return entity.NewValidationError("", "invalid request body: %v", err)
	}
	return nil
}
