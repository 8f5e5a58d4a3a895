package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/messaging"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

// DefaultStockStep is the amount used by bulk stock actions when none is given.
const DefaultStockStep = 10

// StockReport summarises a bulk stock action.
type StockReport struct {
	Updated     int
	Adjustments []entity.StockAdjustment
	// Clamped lists the products whose stock was floored at zero.
	Clamped []string
	Message string
}

// InventoryService runs the staff bulk stock actions.
type InventoryService struct {
	store     repository.Store
	publisher messaging.Publisher
	now       func() time.Time
}

func NewInventoryService(store repository.Store, publisher messaging.Publisher) *InventoryService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &InventoryService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// IncreaseStock adds amount to every selected product in a single update.
func (s *InventoryService) IncreaseStock(ctx context.Context, actor entity.Identity, ids []string, amount int) (*StockReport, error) {
	ids, err := s.prepare(actor, ids, amount)
	if err != nil {
		return nil, err
	}

	adjustments, err := s.store.Products().IncreaseStock(ctx, ids, amount)
	if err != nil {
		return nil, err
	}

	report := newStockReport(adjustments)
	report.Message = fmt.Sprintf("%d product(s) stock successfully increased by %d units.", report.Updated, amount)
	s.announce(ctx, adjustments, "admin_increase")

	slog.Info("Stock increased", "products", report.Updated, "amount", amount, "by", actor.UserID)
	return report, nil
}

// DecreaseStock subtracts amount from every selected product, flooring each at zero.
func (s *InventoryService) DecreaseStock(ctx context.Context, actor entity.Identity, ids []string, amount int) (*StockReport, error) {
	ids, err := s.prepare(actor, ids, amount)
	if err != nil {
		return nil, err
	}

	adjustments, err := s.store.Products().DecreaseStockClamped(ctx, ids, amount)
	if err != nil {
		return nil, err
	}

	report := newStockReport(adjustments)
	report.Message = "Stock for selected product(s) successfully decreased."
	s.announce(ctx, adjustments, "admin_decrease")

	slog.Info("Stock decreased", "products", report.Updated, "amount", amount, "clamped", len(report.Clamped), "by", actor.UserID)
	return report, nil
}

func (s *InventoryService) prepare(actor entity.Identity, ids []string, amount int) ([]string, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, entity.NewValidationError("amount", "must be a positive integer")
	}
	if amount > entity.MaxStock {
		return nil, entity.NewValidationError("amount", "must be at most %d", entity.MaxStock)
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, entity.NewValidationError("product_ids", "select at least one product")
	}
	return out, nil
}

func newStockReport(adjustments []entity.StockAdjustment) *StockReport {
	report := &StockReport{
		Updated:     len(adjustments),
		Adjustments: adjustments,
		Clamped:     []string{},
	}
	for _, a := range adjustments {
		if a.Clamped {
			report.Clamped = append(report.Clamped, a.ProductID)
		}
	}
	return report
}

func (s *InventoryService) announce(ctx context.Context, adjustments []entity.StockAdjustment, reason string) {
	at := s.now()
	for _, a := range adjustments {
		if a.Previous == a.Current {
			continue
		}
		publishStockChanged(ctx, s.publisher, a.ProductID, a.Current, reason, at)
	}
}
