package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vectra-pos/vectra-pos/internal/inventory"
	"github.com/vectra-pos/vectra-pos/internal/notifications"
	"github.com/vectra-pos/vectra-pos/internal/observability"
	"github.com/vectra-pos/vectra-pos/internal/products"
	"github.com/vectra-pos/vectra-pos/internal/purchases"
	"github.com/vectra-pos/vectra-pos/internal/sales"
	"github.com/vectra-pos/vectra-pos/internal/usage"
	"github.com/vectra-pos/vectra-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	InventoryHandler     *inventory.Handler
	SalesHandler         *sales.Handler
	PurchasesHandler     *purchases.Handler
	ProductsHandler      *products.Handler
	UsageHandler         *usage.Handler
	NotificationsHandler *notifications.Handler
	JobHandler           *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults. Business
// routes live under /api/v1 behind the principal middleware; health and
// metrics stay open for probes and scrapers.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(PrincipalMiddleware(params.Logger))

		if params.ProductsHandler != nil {
			api.Route("/products", params.ProductsHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			api.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.SalesHandler != nil {
			api.Route("/sales", params.SalesHandler.MountRoutes)
		}
		if params.PurchasesHandler != nil {
			api.Route("/purchases", params.PurchasesHandler.MountRoutes)
		}
		if params.UsageHandler != nil {
			api.Route("/usage", params.UsageHandler.MountRoutes)
		}
		if params.NotificationsHandler != nil {
			api.Route("/notifications", params.NotificationsHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
