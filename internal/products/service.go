package products

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vectra-pos/vectra-pos/internal/shared"
	"github.com/vectra-pos/vectra-pos/internal/usage"
)

// UsagePort abstracts the usage counter.
type UsagePort interface {
	Register(ctx context.Context, companyID int64, resource usage.ResourceType) (int64, error)
	Release(ctx context.Context, companyID int64, resource usage.ResourceType) (int64, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages the tenant product catalog. Creation and deactivation feed
// the usage counter; stock itself is never written here.
type Service struct {
	repo   Repository
	usage  UsagePort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, usagePort UsagePort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, usage: usagePort, audit: audit, logger: logger}
}

// Create inserts a catalog row. The SKU is unique per tenant; a duplicate
// maps to Duplicate via the database constraint, not a racy pre-check.
func (s *Service) Create(ctx context.Context, principal shared.Principal, req CreateProductRequest) (*Product, error) {
	sku := strings.TrimSpace(req.SKU)
	name := strings.TrimSpace(req.Name)
	if sku == "" || name == "" {
		return nil, fmt.Errorf("%w: sku y nombre requeridos", shared.ErrInvalidInput)
	}
	if req.SalePrice < 0 || req.PurchasePrice < 0 || req.InitialStock < 0 || req.MinStock < 0 {
		return nil, fmt.Errorf("%w: precios y cantidades deben ser >= 0", shared.ErrInvalidInput)
	}

	id, err := s.repo.Insert(ctx, Product{
		CompanyID:     principal.CompanyID,
		SKU:           sku,
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		Category:      strings.TrimSpace(req.Category),
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Stock:         req.InitialStock,
		MinStock:      req.MinStock,
	})
	if err != nil {
		return nil, err
	}

	if s.usage != nil {
		if _, err := s.usage.Register(ctx, principal.CompanyID, usage.ResourceProducts); err != nil && s.logger != nil {
			s.logger.Warn("usage register failed", slog.Int64("company_id", principal.CompanyID), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, principal, "product:create", id, map[string]any{"sku": sku})

	return s.repo.Get(ctx, principal.CompanyID, id)
}

// Update changes catalog fields of an existing product.
func (s *Service) Update(ctx context.Context, principal shared.Principal, productID int64, req UpdateProductRequest) (*Product, error) {
	current, err := s.repo.Get(ctx, principal.CompanyID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: nombre no puede ser vacio", shared.ErrInvalidInput)
		}
		current.Name = name
	}
	if req.Description != nil {
		current.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		current.Category = strings.TrimSpace(*req.Category)
	}
	if req.PurchasePrice != nil {
		current.PurchasePrice = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		current.SalePrice = *req.SalePrice
	}
	if req.MinStock != nil {
		current.MinStock = *req.MinStock
	}

	if err := s.repo.Update(ctx, *current); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, principal, "product:update", productID, nil)
	return s.repo.Get(ctx, principal.CompanyID, productID)
}

// Deactivate retires a product from sale and releases its usage slot.
func (s *Service) Deactivate(ctx context.Context, principal shared.Principal, productID int64) error {
	if err := s.repo.SetStatus(ctx, principal.CompanyID, productID, StatusInactive); err != nil {
		return err
	}
	if s.usage != nil {
		if _, err := s.usage.Release(ctx, principal.CompanyID, usage.ResourceProducts); err != nil && s.logger != nil {
			s.logger.Warn("usage release failed", slog.Int64("company_id", principal.CompanyID), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, principal, "product:deactivate", productID, nil)
	return nil
}

// Reactivate restores a product to the active catalog.
func (s *Service) Reactivate(ctx context.Context, principal shared.Principal, productID int64) error {
	if err := s.repo.SetStatus(ctx, principal.CompanyID, productID, StatusActive); err != nil {
		return err
	}
	if s.usage != nil {
		if _, err := s.usage.Register(ctx, principal.CompanyID, usage.ResourceProducts); err != nil && s.logger != nil {
			s.logger.Warn("usage register failed", slog.Int64("company_id", principal.CompanyID), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, principal, "product:reactivate", productID, nil)
	return nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, companyID, productID int64) (*Product, error) {
	return s.repo.Get(ctx, companyID, productID)
}

// List returns a filtered catalog page and the unpaged total.
func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, principal shared.Principal, action string, productID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		CompanyID: principal.CompanyID,
		ActorID:   principal.UserID,
		Action:    action,
		Entity:    "product",
		EntityID:  strconv.FormatInt(productID, 10),
		Meta:      meta,
	})
}
