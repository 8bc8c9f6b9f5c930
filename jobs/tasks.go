package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeLowStockAlert carries one low stock alert to be persisted as a
	// notification row.
	TaskTypeLowStockAlert = "inventory:low_stock_alert"
	// TaskTypeLowStockSweep triggers the periodic scan of active products at
	// or under their reorder threshold.
	TaskTypeLowStockSweep = "inventory:low_stock_sweep"
)

// LowStockAlertPayload describes a product that landed at or under min_stock.
type LowStockAlertPayload struct {
	CompanyID   int64  `json:"company_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int64  `json:"stock"`
	MinStock    int64  `json:"min_stock"`
	AlertKey    string `json:"alert_key"`
}

// NewLowStockAlertTask constructs an Asynq task for a single alert. AlertKey
// rides in the payload as an idempotency key: the notification insert is
// unique on it, so a redelivered task after a lost ack does not write a
// second row.
func NewLowStockAlertTask(payload LowStockAlertPayload) (*asynq.Task, error) {
	if payload.AlertKey == "" {
		payload.AlertKey = uuid.NewString()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStockAlert, data), nil
}

// NewLowStockSweepTask constructs the cron sweep task. It carries no payload;
// the handler scans every tenant.
func NewLowStockSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeLowStockSweep, nil)
}
