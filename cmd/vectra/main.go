package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/vectra-pos/vectra-pos/internal/app"
	"github.com/vectra-pos/vectra-pos/internal/inventory"
	"github.com/vectra-pos/vectra-pos/internal/notifications"
	"github.com/vectra-pos/vectra-pos/internal/observability"
	"github.com/vectra-pos/vectra-pos/internal/platform/cache"
	"github.com/vectra-pos/vectra-pos/internal/platform/db"
	"github.com/vectra-pos/vectra-pos/internal/products"
	"github.com/vectra-pos/vectra-pos/internal/purchases"
	"github.com/vectra-pos/vectra-pos/internal/sales"
	"github.com/vectra-pos/vectra-pos/internal/shared"
	"github.com/vectra-pos/vectra-pos/internal/usage"
	"github.com/vectra-pos/vectra-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, usage cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	notifier := notifications.NewAsynqNotifier(jobsClient)
	engine := inventory.NewEngine(metrics.Registerer())

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, engine, notifier, auditLogger, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, validate)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, engine, notifier, auditLogger, logger)
	salesHandler := sales.NewHandler(logger, salesService, validate)

	purchasesRepo := purchases.NewRepository(pool)
	purchasesService := purchases.NewService(purchasesRepo, engine, notifier, auditLogger, logger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService, validate)

	usageRepo := usage.NewRepository(pool)
	usageService := usage.NewService(usageRepo, redisClient, logger)
	usageHandler := usage.NewHandler(logger, usageService)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, usageService, auditLogger, logger)
	productsHandler := products.NewHandler(logger, productsService, validate)

	notificationsRepo := notifications.NewRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, logger)
	notificationsHandler := notifications.NewHandler(logger, notificationsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		InventoryHandler:     inventoryHandler,
		SalesHandler:         salesHandler,
		PurchasesHandler:     purchasesHandler,
		ProductsHandler:      productsHandler,
		UsageHandler:         usageHandler,
		NotificationsHandler: notificationsHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server run", slog.Any("error", err))
		os.Exit(1)
	}
}
