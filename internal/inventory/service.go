package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithStockTx(ctx context.Context, fn func(context.Context, StockTx) error) error
	ProductMovements(ctx context.Context, companyID, productID int64, limit int) ([]MovementWithUser, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	CompanyID int64
	ProductID int64
	UserID    int64
	Delta     int64
	Notes     string
}

// ReceiptInput describes an ad hoc single-product supplier receipt, without a
// purchase header.
type ReceiptInput struct {
	CompanyID int64
	ProductID int64
	UserID    int64
	Quantity  int64
	Notes     string
}

// AdjustmentResult reports balances around a committed adjustment or receipt.
type AdjustmentResult struct {
	PreviousStock int64 `json:"previous_stock"`
	NewStock      int64 `json:"new_stock"`
}

// Service exposes the direct inventory operations: manual adjustments, ad hoc
// receipts and ledger reads. Sales and purchases drive the engine through
// their own orchestrators.
type Service struct {
	repo     RepositoryPort
	engine   *Engine
	notifier LowStockNotifier
	audit    AuditPort
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, engine *Engine, notifier LowStockNotifier, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, notifier: notifier, audit: audit, logger: logger}
}

// Adjust applies a signed manual correction. A delta that would leave the
// balance negative is rejected with InsufficientStock and nothing is written.
func (s *Service) Adjust(ctx context.Context, in AdjustmentInput) (AdjustmentResult, error) {
	if in.Delta == 0 {
		return AdjustmentResult{}, fmt.Errorf("%w: quantity must be nonzero", shared.ErrInvalidInput)
	}
	var result MovementResult
	err := s.repo.WithStockTx(ctx, func(ctx context.Context, tx StockTx) error {
		var err error
		result, err = s.engine.Apply(ctx, tx, MovementInput{
			CompanyID: in.CompanyID,
			ProductID: in.ProductID,
			Delta:     in.Delta,
			Type:      MovementAdjustment,
			UserID:    in.UserID,
			Notes:     in.Notes,
		})
		return err
	})
	if err != nil {
		return AdjustmentResult{}, err
	}
	if result.LowStock {
		s.dispatchAlert(ctx, result.Alert())
	}
	s.recordAudit(ctx, in.CompanyID, in.UserID, "inventory:adjust", result)
	return AdjustmentResult{PreviousStock: result.PreviousStock, NewStock: result.NewStock}, nil
}

// ReceiveStock registers incoming stock for a single product.
func (s *Service) ReceiveStock(ctx context.Context, in ReceiptInput) (AdjustmentResult, error) {
	if in.Quantity <= 0 {
		return AdjustmentResult{}, fmt.Errorf("%w: quantity must be positive", shared.ErrInvalidInput)
	}
	var result MovementResult
	err := s.repo.WithStockTx(ctx, func(ctx context.Context, tx StockTx) error {
		var err error
		result, err = s.engine.Apply(ctx, tx, MovementInput{
			CompanyID: in.CompanyID,
			ProductID: in.ProductID,
			Delta:     in.Quantity,
			Type:      MovementPurchase,
			UserID:    in.UserID,
			Notes:     in.Notes,
		})
		return err
	})
	if err != nil {
		return AdjustmentResult{}, err
	}
	s.recordAudit(ctx, in.CompanyID, in.UserID, "inventory:receive", result)
	return AdjustmentResult{PreviousStock: result.PreviousStock, NewStock: result.NewStock}, nil
}

// Movements lists the ledger for one product.
func (s *Service) Movements(ctx context.Context, companyID, productID int64, limit int) ([]MovementWithUser, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product required", shared.ErrInvalidInput)
	}
	return s.repo.ProductMovements(ctx, companyID, productID, limit)
}

func (s *Service) dispatchAlert(ctx context.Context, alert LowStockAlert) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyLowStock(ctx, alert); err != nil && s.logger != nil {
		s.logger.Warn("low stock notify failed",
			slog.Int64("product_id", alert.ProductID),
			slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, companyID, userID int64, action string, result MovementResult) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: companyID,
		ActorID:   userID,
		Action:    action,
		Entity:    "inventory_movement",
		EntityID:  strconv.FormatInt(result.MovementID, 10),
		Meta: map[string]any{
			"product_id":     result.Product.ID,
			"previous_stock": result.PreviousStock,
			"new_stock":      result.NewStock,
		},
	})
}
