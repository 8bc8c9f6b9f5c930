package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the resource does not exist or belongs to another tenant.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed request rejected before any durable effect.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyCancelled guards repeated cancellation of sales and purchases.
	ErrAlreadyCancelled = errors.New("already cancelled")
	// ErrInsufficientStock is the sentinel matched by errors.Is for stock shortfalls.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrDuplicate indicates a uniqueness violation (SKU, usage period row).
	ErrDuplicate = errors.New("duplicate entry")
)

// InsufficientStockError names the offending product so callers can surface it.
type InsufficientStockError struct {
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %q: solicitado %d, disponible %d", e.ProductName, e.Requested, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientStock) match the typed error.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
