package inventory

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vectra-pos/vectra-pos/internal/shared"
)

// StockTx is the transactional surface the engine mutates stock through. The
// pg implementation wraps a pgx.Tx; orchestrators in other modules compose it
// into their own transaction wrappers so a multi-line sale shares one
// transaction with its header and lines.
type StockTx interface {
	// ProductForUpdate acquires an exclusive row lock on the product, scoped
	// to the tenant. Returns shared.ErrNotFound when no row matches.
	ProductForUpdate(ctx context.Context, companyID, productID int64) (LockedProduct, error)
	UpdateProductStock(ctx context.Context, companyID, productID, newStock int64) error
	InsertMovement(ctx context.Context, m Movement) (int64, error)
}

// Engine is the single choke point through which product stock changes. Every
// mutation locks the row, validates the resulting balance, writes the new
// balance and appends exactly one ledger entry, all inside the caller's
// transaction.
type Engine struct {
	movements *prometheus.CounterVec
}

// NewEngine constructs the engine, registering its movement counter when a
// registerer is provided.
func NewEngine(reg prometheus.Registerer) *Engine {
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vectra_stock_movements_total",
		Help: "Stock movement ledger writes by type, counted before the surrounding transaction commits.",
	}, []string{"type"})
	if reg != nil {
		reg.MustRegister(movements)
	}
	return &Engine{movements: movements}
}

// Apply performs one stock mutation inside tx. On any error the caller must
// roll back the surrounding transaction; Apply itself leaves no partial state
// behind a rollback. The LowStock flag is level-triggered: it is set whenever
// the new balance lands at or under min_stock, not only on the crossing edge,
// so repeated low-stock sales raise repeated alerts.
func (e *Engine) Apply(ctx context.Context, tx StockTx, in MovementInput) (MovementResult, error) {
	if !in.Type.Valid() {
		return MovementResult{}, fmt.Errorf("%w: unknown movement type %q", shared.ErrInvalidInput, in.Type)
	}
	if in.Delta == 0 {
		return MovementResult{}, fmt.Errorf("%w: movement delta must be nonzero", shared.ErrInvalidInput)
	}
	if in.CompanyID == 0 || in.ProductID == 0 {
		return MovementResult{}, fmt.Errorf("%w: company and product required", shared.ErrInvalidInput)
	}

	product, err := tx.ProductForUpdate(ctx, in.CompanyID, in.ProductID)
	if err != nil {
		return MovementResult{}, err
	}

	newStock := product.Stock + in.Delta
	if newStock < 0 {
		return MovementResult{}, &shared.InsufficientStockError{
			ProductName: product.Name,
			Requested:   -in.Delta,
			Available:   product.Stock,
		}
	}

	if err := tx.UpdateProductStock(ctx, in.CompanyID, in.ProductID, newStock); err != nil {
		return MovementResult{}, fmt.Errorf("update stock: %w", err)
	}

	movementID, err := tx.InsertMovement(ctx, Movement{
		CompanyID:     in.CompanyID,
		ProductID:     in.ProductID,
		Type:          in.Type,
		Quantity:      in.Delta,
		PreviousStock: product.Stock,
		NewStock:      newStock,
		UserID:        in.UserID,
		ReferenceID:   in.ReferenceID,
		Notes:         in.Notes,
	})
	if err != nil {
		return MovementResult{}, fmt.Errorf("insert movement: %w", err)
	}

	if e.movements != nil {
		e.movements.WithLabelValues(string(in.Type)).Inc()
	}

	return MovementResult{
		MovementID:    movementID,
		Product:       product,
		PreviousStock: product.Stock,
		NewStock:      newStock,
		LowStock:      newStock <= product.MinStock,
	}, nil
}

// Alert builds the notifier payload for a low-stock result.
func (r MovementResult) Alert() LowStockAlert {
	return LowStockAlert{
		CompanyID:   r.Product.CompanyID,
		ProductID:   r.Product.ID,
		ProductName: r.Product.Name,
		Stock:       r.NewStock,
		MinStock:    r.Product.MinStock,
	}
}
