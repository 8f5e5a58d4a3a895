package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/cors"

	"github.com/Ahmat91/Ecommerce-ALX/internal/auth"
	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/metrics"
	"github.com/Ahmat91/Ecommerce-ALX/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles HTTP requests for the application.
type Handler struct {
	catalogSvc   *service.CatalogService
	cartSvc      *service.CartService
	orderSvc     *service.OrderService
	inventorySvc *service.InventoryService
	auth         *auth.Authenticator
	metrics      *metrics.Metrics
	store        Pinger
}

// Deps groups what the handler needs. Metrics may be nil.
type Deps struct {
	Catalog   *service.CatalogService
	Cart      *service.CartService
	Orders    *service.OrderService
	Inventory *service.InventoryService
	Auth      *auth.Authenticator
	Metrics   *metrics.Metrics
	Store     Pinger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		catalogSvc:   d.Catalog,
		cartSvc:      d.Cart,
		orderSvc:     d.Orders,
		inventorySvc: d.Inventory,
		auth:         d.Auth,
		metrics:      d.Metrics,
		store:        d.Store,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	h.handle(mux, "GET /api/categories", h.handleListCategories)
	h.handle(mux, "POST /api/categories", h.handleCreateCategory)
	h.handle(mux, "GET /api/categories/{id}", h.handleGetCategory)
	h.handle(mux, "PUT /api/categories/{id}", h.handleUpdateCategory)
	h.handle(mux, "DELETE /api/categories/{id}", h.handleDeleteCategory)

	h.handle(mux, "GET /api/products", h.handleListProducts)
	h.handle(mux, "POST /api/products", h.handleCreateProduct)
	h.handle(mux, "GET /api/products/{id}", h.handleGetProduct)
	h.handle(mux, "PUT /api/products/{id}", h.handleUpdateProduct)
	h.handle(mux, "DELETE /api/products/{id}", h.handleDeleteProduct)

	h.handle(mux, "GET /api/cart/items", h.handleListCart)
	h.handle(mux, "POST /api/cart/items", h.handleSetCartItem)
	h.handle(mux, "GET /api/cart/items/{id}", h.handleGetCartItem)
	h.handle(mux, "DELETE /api/cart/items/{id}", h.handleDeleteCartItem)

	h.handle(mux, "POST /api/orders", h.handleCreateOrder)
	h.handle(mux, "GET /api/orders", h.handleGetOrders)
	h.handle(mux, "GET /api/orders/{id}", h.handleGetOrder)

	h.handle(mux, "GET /api/admin/products", h.handleAdminProducts)
	h.handle(mux, "POST /api/admin/products/stock/increase", h.handleIncreaseStock)
	h.handle(mux, "POST /api/admin/products/stock/decrease", h.handleDecreaseStock)
	h.handle(mux, "GET /api/admin/orders", h.handleAdminOrders)
	h.handle(mux, "PATCH /api/admin/orders/{id}", h.handleUpdateOrderStatus)

	h.handle(mux, "GET /health", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
}

// Routes returns the full middleware chain: CORS, then identity, then the routes.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(h.authenticate(mux))
}

// handle registers fn under pattern, recording one log line and one metric sample per request.
func (h *Handler) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)

		d := time.Since(start)
		h.metrics.ObserveRequest(pattern, strconv.Itoa(rec.status), d)
		slog.Info("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", d)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type identityKey struct{}

// authenticate attaches the caller's identity to the request. No header means anonymous;
// a header that does not verify is rejected outright.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok, err := auth.FromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := h.auth.Parse(raw)
		if err != nil {
			slog.Warn("Rejected bearer token", "path", r.URL.Path, "err", err)
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func identityFrom(r *http.Request) entity.Identity {
	id, _ := r.Context().Value(identityKey{}).(entity.Identity)
	return id
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("Health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
