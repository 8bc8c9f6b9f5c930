package sales

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

// Service orchestrates sale transactions: one atomic transaction covers the
// header, every line item and every resulting stock movement.
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

// Create commits a sale. Lines are locked in product_id order so two
// concurrent multi-line sales can never lock the same two products in
// opposite order. Any validation or stock failure rolls back everything.
func (s *Service) Create(ctx context.Context, principal shared.Principal, req CreateSaleRequest) (SaleResult, error) {
	if len(req.Lines) == 0 {
		return SaleResult{}, fmt.Errorf("%w: la venta debe incluir productos", shared.ErrInvalidInput)
	}
	if req.PaymentMethod == "" {
		return SaleResult{}, fmt.Errorf("%w: metodo de pago requerido", shared.ErrInvalidInput)
	}
	if req.Discount < 0 || req.Tax < 0 {
		return SaleResult{}, fmt.Errorf("%w: descuento e impuesto deben ser >= 0", shared.ErrInvalidInput)
	}
	lines := make([]CreateSaleLineRequest, len(req.Lines))
	copy(lines, req.Lines)
	for _, line := range lines {
		if line.ProductID <= 0 || line.Quantity <= 0 {
			return SaleResult{}, fmt.Errorf("%w: cantidad invalida en productos", shared.ErrInvalidInput)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var result SaleResult
	var alerts []inventory.LowStockAlert
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if req.CustomerID != nil {
			ok, err := tx.CustomerExists(ctx, principal.CompanyID, *req.CustomerID)
			if err != nil {
				return fmt.Errorf("verify customer: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: cliente", shared.ErrNotFound)
			}
		}

		saleID, err := tx.InsertSaleHeader(ctx, Sale{
			CompanyID:     principal.CompanyID,
			CustomerID:    req.CustomerID,
			UserID:        principal.UserID,
			Tax:           req.Tax,
			Discount:      req.Discount,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			return fmt.Errorf("insert sale header: %w", err)
		}

		var subtotal, totalProfit float64
		for _, line := range lines {
			movement, err := s.engine.Apply(ctx, tx.Stock(), inventory.MovementInput{
				CompanyID:   principal.CompanyID,
				ProductID:   line.ProductID,
				Delta:       -line.Quantity,
				Type:        inventory.MovementSale,
				UserID:      principal.UserID,
				ReferenceID: &saleID,
				Notes:       "Venta realizada",
			})
			if err != nil {
				return err
			}

			product := movement.Product
			lineSubtotal := product.SalePrice * float64(line.Quantity)
			lineProfit := (product.SalePrice - product.PurchasePrice) * float64(line.Quantity)
			subtotal += lineSubtotal
			totalProfit += lineProfit

			if err := tx.InsertSaleLine(ctx, SaleLine{
				SaleID:        saleID,
				ProductID:     product.ID,
				Quantity:      line.Quantity,
				UnitPrice:     product.SalePrice,
				PurchasePrice: product.PurchasePrice,
				Subtotal:      lineSubtotal,
				Profit:        lineProfit,
			}); err != nil {
				return fmt.Errorf("insert sale line: %w", err)
			}

			if movement.LowStock {
				alerts = append(alerts, movement.Alert())
			}
		}

		totalAmount := subtotal + req.Tax - req.Discount
		if totalAmount < 0 {
			return fmt.Errorf("%w: el total no puede ser negativo", shared.ErrInvalidInput)
		}
		if err := tx.UpdateSaleTotals(ctx, saleID, subtotal, totalAmount); err != nil {
			return fmt.Errorf("update sale totals: %w", err)
		}

		result = SaleResult{
			SaleID:      saleID,
			Subtotal:    subtotal,
			Tax:         req.Tax,
			Discount:    req.Discount,
			TotalAmount: totalAmount,
			TotalProfit: totalProfit,
		}
		return nil
	})
	if err != nil {
		return SaleResult{}, err
	}

	s.dispatchAlerts(ctx, alerts)
	s.recordAudit(ctx, principal, "sale:create", result.SaleID, map[string]any{
		"total_amount": result.TotalAmount,
		"line_count":   len(lines),
	})
	return result, nil
}

// Cancel reverses every movement of a completed sale and marks it cancelled.
// A second cancellation fails with AlreadyCancelled and writes nothing.
func (s *Service) Cancel(ctx context.Context, principal shared.Principal, saleID int64) error {
	var alerts []inventory.LowStockAlert
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		sale, err := tx.SaleForUpdate(ctx, principal.CompanyID, saleID)
		if err != nil {
			return err
		}
		if sale.Status == SaleStatusCancelled {
			return fmt.Errorf("%w: la venta ya esta cancelada", shared.ErrAlreadyCancelled)
		}

		lines, err := tx.SaleLines(ctx, saleID)
		if err != nil {
			return fmt.Errorf("load sale lines: %w", err)
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

		for _, line := range lines {
			movement, err := s.engine.Apply(ctx, tx.Stock(), inventory.MovementInput{
				CompanyID:   principal.CompanyID,
				ProductID:   line.ProductID,
				Delta:       line.Quantity,
				Type:        inventory.MovementSale,
				UserID:      principal.UserID,
				ReferenceID: &saleID,
				Notes:       "Venta cancelada",
			})
			if err != nil {
				return err
			}
			if movement.LowStock {
				alerts = append(alerts, movement.Alert())
			}
		}

		return tx.MarkCancelled(ctx, saleID)
	})
	if err != nil {
		return err
	}

	s.dispatchAlerts(ctx, alerts)
	s.recordAudit(ctx, principal, "sale:cancel", saleID, nil)
	return nil
}

// Get returns a sale with its lines.
func (s *Service) Get(ctx context.Context, companyID, saleID int64) (*Sale, error) {
	return s.repo.GetSale(ctx, companyID, saleID)
}

// List returns a filtered page of sales and the unpaged total.
func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]SaleSummary, int, error) {
	return s.repo.List(ctx, req)
}

// Daily aggregates today's completed sales.
func (s *Service) Daily(ctx context.Context, companyID int64) (DailySummary, error) {
	return s.repo.DailySummary(ctx, companyID)
}

// ByCustomer lists a customer's completed sales.
func (s *Service) ByCustomer(ctx context.Context, companyID, customerID int64) ([]SaleSummary, error) {
	return s.repo.CustomerSales(ctx, companyID, customerID)
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

func (s *Service) recordAudit(ctx context.Context, principal shared.Principal, action string, saleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: principal.CompanyID,
		ActorID:   principal.UserID,
		Action:    action,
		Entity:    "sale",
		EntityID:  strconv.FormatInt(saleID, 10),
		Meta:      meta,
	})
}
