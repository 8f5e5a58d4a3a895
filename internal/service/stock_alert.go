package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/metrics"
)

// DefaultLowStockThreshold is the stock level at or below which a product is reported.
const DefaultLowStockThreshold = 5

// StockAlertHandler consumes ProductStockChanged events and flags products running low.
// It only observes; nothing is written back to the store.
type StockAlertHandler struct {
	threshold int
	metrics   *metrics.Metrics
}

func NewStockAlertHandler(threshold int, m *metrics.Metrics) *StockAlertHandler {
	if threshold < 0 {
		threshold = DefaultLowStockThreshold
	}
	return &StockAlertHandler{threshold: threshold, metrics: m}
}

// Handle processes one catalog.stock_changed payload.
func (h *StockAlertHandler) Handle(ctx context.Context, payload []byte) error {
	var event entity.ProductStockChanged
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ProductStockChanged event: %w", err)
	}
	if event.ProductID == "" {
		return fmt.Errorf("ProductStockChanged event without product_id")
	}

	if event.NewStock > h.threshold {
		slog.Debug("Stock level ok", "product_id", event.ProductID, "stock", event.NewStock)
		return nil
	}

	h.metrics.LowStockAlert()
	slog.Warn("⚠️ Low stock", "product_id", event.ProductID, "stock", event.NewStock,
		"threshold", h.threshold, "reason", event.Reason)
	return nil
}
