package notifications

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/vectra-pos/vectra-pos/jobs"
)

// TaskHandlers binds the service to the worker's task mux.
func TaskHandlers(service *Service) []jobs.TaskHandler {
	return []jobs.TaskHandler{
		{Type: jobs.TaskTypeLowStockAlert, Handler: handleLowStockAlert(service)},
		{Type: jobs.TaskTypeLowStockSweep, Handler: handleLowStockSweep(service)},
	}
}

func handleLowStockAlert(service *Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload jobs.LowStockAlertPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return service.RecordLowStockAlert(ctx, payload)
	}
}

func handleLowStockSweep(service *Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return service.SweepLowStock(ctx)
	}
}
