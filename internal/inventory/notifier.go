package inventory

import "context"

// LowStockNotifier receives alerts after the stock transaction commits.
// Implementations must be fire-and-forget: a failure here is logged by the
// caller and never influences the committed stock change.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, alert LowStockAlert) error
}
