package purchases

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/vectra-pos/vectra-pos/internal/inventory"
	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates supplier receipts. Registering a purchase adds stock,
// so it can never fail on availability; cancelling one removes stock and can.
type Service struct {
	repo     Repository
	engine   *inventory.Engine
	notifier inventory.LowStockNotifier
	audit    AuditPort
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, engine *inventory.Engine, notifier inventory.LowStockNotifier, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, engine: engine, notifier: notifier, audit: audit, logger: logger}
}

// Create registers a purchase: header, one positive movement per line, line
// rows with cost snapshots and the computed totals, all in one transaction.
// Incoming stock raises no low stock alerts.
func (s *Service) Create(ctx context.Context, principal shared.Principal, req CreatePurchaseRequest) (PurchaseResult, error) {
	if req.SupplierID <= 0 {
		return PurchaseResult{}, fmt.Errorf("%w: proveedor requerido", shared.ErrInvalidInput)
	}
	if len(req.Lines) == 0 {
		return PurchaseResult{}, fmt.Errorf("%w: la compra debe incluir productos", shared.ErrInvalidInput)
	}
	if req.Tax < 0 {
		return PurchaseResult{}, fmt.Errorf("%w: el impuesto debe ser >= 0", shared.ErrInvalidInput)
	}
	lines := make([]CreatePurchaseLineRequest, len(req.Lines))
	copy(lines, req.Lines)
	for _, line := range lines {
		if line.ProductID <= 0 || line.Quantity <= 0 || line.UnitCost <= 0 {
			return PurchaseResult{}, fmt.Errorf("%w: cantidad y costo deben ser positivos", shared.ErrInvalidInput)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var result PurchaseResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.SupplierExists(ctx, principal.CompanyID, req.SupplierID)
		if err != nil {
			return fmt.Errorf("verify supplier: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: proveedor", shared.ErrNotFound)
		}

		purchaseID, err := tx.InsertPurchaseHeader(ctx, Purchase{
			CompanyID:  principal.CompanyID,
			SupplierID: req.SupplierID,
			UserID:     principal.UserID,
			Tax:        req.Tax,
			InvoiceNo:  req.InvoiceNo,
			Notes:      req.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert purchase header: %w", err)
		}

		var subtotal float64
		for _, line := range lines {
			if _, err := s.engine.Apply(ctx, tx.Stock(), inventory.MovementInput{
				CompanyID:   principal.CompanyID,
				ProductID:   line.ProductID,
				Delta:       line.Quantity,
				Type:        inventory.MovementPurchase,
				UserID:      principal.UserID,
				ReferenceID: &purchaseID,
				Notes:       "Compra registrada",
			}); err != nil {
				return err
			}

			lineSubtotal := line.UnitCost * float64(line.Quantity)
			subtotal += lineSubtotal
			if err := tx.InsertPurchaseLine(ctx, PurchaseLine{
				PurchaseID: purchaseID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitCost:   line.UnitCost,
				Subtotal:   lineSubtotal,
			}); err != nil {
				return fmt.Errorf("insert purchase line: %w", err)
			}
		}

		totalAmount := subtotal + req.Tax
		if err := tx.UpdatePurchaseTotals(ctx, purchaseID, subtotal, totalAmount); err != nil {
			return fmt.Errorf("update purchase totals: %w", err)
		}

		result = PurchaseResult{
			PurchaseID:  purchaseID,
			Subtotal:    subtotal,
			Tax:         req.Tax,
			TotalAmount: totalAmount,
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	s.recordAudit(ctx, principal, "purchase:create", result.PurchaseID, map[string]any{
		"total_amount": result.TotalAmount,
		"line_count":   len(lines),
	})
	return result, nil
}

// Cancel reverses a purchase by removing the received stock again. When the
// goods were already sold the reversal fails with InsufficientStock and the
// purchase stays completed.
func (s *Service) Cancel(ctx context.Context, principal shared.Principal, purchaseID int64) error {
	var alerts []inventory.LowStockAlert
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		purchase, err := tx.PurchaseForUpdate(ctx, principal.CompanyID, purchaseID)
		if err != nil {
			return err
		}
		if purchase.Status == PurchaseStatusCancelled {
			return fmt.Errorf("%w: la compra ya esta cancelada", shared.ErrAlreadyCancelled)
		}

		lines, err := tx.PurchaseLines(ctx, purchaseID)
		if err != nil {
			return fmt.Errorf("load purchase lines: %w", err)
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

		for _, line := range lines {
			movement, err := s.engine.Apply(ctx, tx.Stock(), inventory.MovementInput{
				CompanyID:   principal.CompanyID,
				ProductID:   line.ProductID,
				Delta:       -line.Quantity,
				Type:        inventory.MovementPurchase,
				UserID:      principal.UserID,
				ReferenceID: &purchaseID,
				Notes:       "Compra cancelada",
			})
			if err != nil {
				return err
			}
			if movement.LowStock {
				alerts = append(alerts, movement.Alert())
			}
		}

		return tx.MarkCancelled(ctx, purchaseID)
	})
	if err != nil {
		return err
	}

	s.dispatchAlerts(ctx, alerts)
	s.recordAudit(ctx, principal, "purchase:cancel", purchaseID, nil)
	return nil
}

// Get returns a purchase with its lines.
func (s *Service) Get(ctx context.Context, companyID, purchaseID int64) (*Purchase, error) {
	return s.repo.GetPurchase(ctx, companyID, purchaseID)
}

// List returns a filtered page of purchases and the unpaged total.
func (s *Service) List(ctx context.Context, req ListPurchasesRequest) ([]PurchaseSummary, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) dispatchAlerts(ctx context.Context, alerts []inventory.LowStockAlert) {
	if s.notifier == nil {
		return
	}
	for _, alert := range alerts {
		if err := s.notifier.NotifyLowStock(ctx, alert); err != nil && s.logger != nil {
			s.logger.Warn("low stock notify failed",
				slog.Int64("product_id", alert.ProductID),
				slog.Any("error", err))
		}
	}
}

func (s *Service) recordAudit(ctx context.Context, principal shared.Principal, action string, purchaseID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: principal.CompanyID,
		ActorID:   principal.UserID,
		Action:    action,
		Entity:    "purchase",
		EntityID:  strconv.FormatInt(purchaseID, 10),
		Meta:      meta,
	})
}
