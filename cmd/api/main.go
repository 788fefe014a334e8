package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/printforge/printforge-backend/api/routes"
	"github.com/printforge/printforge-backend/internal/baseproducts"
	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/internal/designs"
	"github.com/printforge/printforge-backend/internal/notifications"
	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/internal/vendorproducts"
	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
	"github.com/printforge/printforge-backend/pkg/migrate"
	"github.com/printforge/printforge-backend/pkg/outbox"
	"github.com/printforge/printforge-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	userRepo := users.NewRepository(dbClient.DB())
	designRepo := designs.NewRepository(dbClient.DB())

	dispatcher, err := notifications.NewOutboxDispatcher(dbClient, outbox.NewService(outbox.NewRepository(dbClient.DB()), logg), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	cascadeRepo := cascade.NewRepository(dbClient.DB())
	notifier, err := cascade.NewVendorNotifier(userRepo, cascadeRepo, dispatcher)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor notifier", err)
		os.Exit(1)
	}
	cascadeService, err := cascade.NewService(cascade.ServiceParams{
		Repo:              cascadeRepo,
		Tx:                dbClient,
		Notifier:          notifier,
		Metrics:           metrics.NewCascadeMetrics(prometheus.DefaultRegisterer),
		Logger:            logg,
		LegacyURLFallback: cfg.Cascade.LegacyURLFallback,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cascade service", err)
		os.Exit(1)
	}

	designService, err := designs.NewService(designs.ServiceParams{
		Repo:       designRepo,
		Tx:         dbClient,
		Users:      userRepo,
		Cascade:    cascadeService,
		Dispatcher: dispatcher,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create design service", err)
		os.Exit(1)
	}

	vendorProductService, err := vendorproducts.NewService(vendorproducts.ServiceParams{
		Repo:         vendorproducts.NewRepository(dbClient.DB()),
		Tx:           dbClient,
		Users:        userRepo,
		BaseProducts: baseproducts.NewRepository(dbClient.DB()),
		Designs:      designRepo,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor product service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"service_kind": cfg.Service.Kind,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, designService, vendorProductService, cascadeService),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(groupCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shutting down gracefully")
}
