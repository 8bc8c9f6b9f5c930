package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vectra-pos/vectra-pos/internal/shared"
	"github.com/vectra-pos/vectra-pos/jobs"
)

// Service persists and lists notifications. The low stock paths are driven by
// the asynq worker: the alert handler persists a single enqueued alert, the
// sweep handler scans the catalog for products sitting at or under threshold.
type Service struct {
	repo    Repository
	printer *message.Printer
	logger  *slog.Logger
}

// NewService builds Service. User-facing notification text is Spanish.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		printer: message.NewPrinter(language.Spanish),
		logger:  logger,
	}
}

// RecordLowStockAlert persists one low stock alert as a company-wide
// notification row. The payload's AlertKey makes the insert idempotent: when
// asynq redelivers a task whose row already landed, the duplicate is skipped.
func (s *Service) RecordLowStockAlert(ctx context.Context, payload jobs.LowStockAlertPayload) error {
	if payload.CompanyID == 0 || payload.ProductID == 0 {
		return fmt.Errorf("low stock alert: missing company or product")
	}
	productID := payload.ProductID
	_, err := s.repo.Insert(ctx, Notification{
		CompanyID:   payload.CompanyID,
		Type:        TypeLowStock,
		Title:       "Alerta de stock bajo",
		Message:     s.lowStockMessage(payload.ProductName, payload.Stock, payload.MinStock),
		ReferenceID: &productID,
		AlertKey:    payload.AlertKey,
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			if s.logger != nil {
				s.logger.Info("low stock alert already recorded",
					slog.String("alert_key", payload.AlertKey),
					slog.Int64("product_id", payload.ProductID))
			}
			return nil
		}
		return fmt.Errorf("persist low stock notification: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("low stock notification recorded",
			slog.Int64("company_id", payload.CompanyID),
			slog.Int64("product_id", payload.ProductID),
			slog.Int64("stock", payload.Stock))
	}
	return nil
}

// SweepLowStock scans all tenants for products at or under min_stock and
// records an alert for each. The sweep backstops the transactional alerts: a
// product whose threshold was raised after the last movement still surfaces.
func (s *Service) SweepLowStock(ctx context.Context) error {
	products, err := s.repo.LowStockProducts(ctx)
	if err != nil {
		return fmt.Errorf("scan low stock products: %w", err)
	}
	for _, p := range products {
		productID := p.ProductID
		if _, err := s.repo.Insert(ctx, Notification{
			CompanyID:   p.CompanyID,
			Type:        TypeLowStock,
			Title:       "Alerta de stock bajo",
			Message:     s.lowStockMessage(p.Name, p.Stock, p.MinStock),
			ReferenceID: &productID,
		}); err != nil {
			if s.logger != nil {
				s.logger.Warn("sweep insert failed",
					slog.Int64("product_id", p.ProductID),
					slog.Any("error", err))
			}
			continue
		}
	}
	if s.logger != nil {
		s.logger.Info("low stock sweep finished", slog.Int("alerts", len(products)))
	}
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, companyID, userID int64, unreadOnly bool, limit int) ([]Notification, error) {
	return s.repo.ListForUser(ctx, companyID, userID, unreadOnly, limit)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, companyID, userID, notificationID int64) error {
	return s.repo.MarkRead(ctx, companyID, userID, notificationID)
}

// MarkAllRead marks every unread notification of the user as read and returns
// how many changed.
func (s *Service) MarkAllRead(ctx context.Context, companyID, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, companyID, userID)
}

func (s *Service) lowStockMessage(name string, stock, minStock int64) string {
	return s.printer.Sprintf("El producto %s tiene stock bajo: quedan %d unidades (minimo %d)", name, stock, minStock)
}
