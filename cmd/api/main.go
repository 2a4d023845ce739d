package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ganeshkulfi/factory-backend/api/controllers"
	"github.com/ganeshkulfi/factory-backend/api/routes"
	"github.com/ganeshkulfi/factory-backend/internal/audit"
	"github.com/ganeshkulfi/factory-backend/internal/inventory"
	"github.com/ganeshkulfi/factory-backend/internal/notifications"
	"github.com/ganeshkulfi/factory-backend/internal/orders"
	"github.com/ganeshkulfi/factory-backend/internal/pricing"
	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/internal/users"
	"github.com/ganeshkulfi/factory-backend/pkg/config"
	"github.com/ganeshkulfi/factory-backend/pkg/db"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
	"github.com/ganeshkulfi/factory-backend/pkg/metrics"
	"github.com/ganeshkulfi/factory-backend/pkg/migrate"
	"github.com/ganeshkulfi/factory-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	productsSvc := products.NewService(productsRepo)
	pricingSvc := pricing.NewService(pricing.NewOverrideRepository(dbClient.DB()), productsRepo, usersRepo, cfg.Pricing)
	auditSvc := audit.NewService(audit.NewRepository(dbClient.DB()))
	inventorySvc := inventory.NewService(inventory.NewRepository(dbClient.DB()), productsRepo, dbClient, orderMetrics)
	ordersRepo := orders.NewRepository(dbClient.DB())

	notificationsSvc, err := notifications.NewService(auditSvc, ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.Deps{
		Repo:      ordersRepo,
		Users:     usersRepo,
		Products:  productsRepo,
		Pricing:   pricingSvc,
		Inventory: inventorySvc,
		Audit:     auditSvc,
		Notifier:  notificationsSvc,
		Tx:        dbClient,
		Metrics:   orderMetrics,
		Cfg:       cfg.Pricing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Redis:    redisClient,
		Gatherer: registry,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Products:      productsSvc,
		Pricing:       pricingSvc,
		Inventory:     inventorySvc,
		Orders:        ordersSvc,
		Notifications: notificationsSvc,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
