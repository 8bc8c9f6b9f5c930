package notifications

import (
	"context"
	"fmt"

	"github.com/vectra-pos/vectra-pos/internal/inventory"
	"github.com/vectra-pos/vectra-pos/jobs"
)

// AsynqNotifier dispatches low stock alerts onto the asynq queue. Services
// call it after their transaction commits, so a queue outage can never roll
// back a stock movement; enqueue failures are surfaced to the caller for
// logging only.
type AsynqNotifier struct {
	client *jobs.Client
}

// NewAsynqNotifier builds the queue-backed notifier.
func NewAsynqNotifier(client *jobs.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

// NotifyLowStock implements inventory.LowStockNotifier.
func (n *AsynqNotifier) NotifyLowStock(ctx context.Context, alert inventory.LowStockAlert) error {
	if n.client == nil {
		return nil
	}
	_, err := n.client.EnqueueLowStockAlert(ctx, jobs.LowStockAlertPayload{
		CompanyID:   alert.CompanyID,
		ProductID:   alert.ProductID,
		ProductName: alert.ProductName,
		Stock:       alert.Stock,
		MinStock:    alert.MinStock,
	})
	if err != nil {
		return fmt.Errorf("enqueue low stock alert: %w", err)
	}
	return nil
}
