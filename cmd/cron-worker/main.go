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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/internal/cron"
	"github.com/printforge/printforge-backend/internal/notifications"
	"github.com/printforge/printforge-backend/internal/users"
	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/logger"
	"github.com/printforge/printforge-backend/pkg/metrics"
	"github.com/printforge/printforge-backend/pkg/migrate"
	"github.com/printforge/printforge-backend/pkg/outbox"
	"github.com/printforge/printforge-backend/pkg/redis"
)

const (
	serviceKind     = "cron-worker"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database", err)
		}
	}()
	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis", err)
		}
	}()

	outboxRepo := outbox.NewRepository(dbClient.DB())
	dispatcher, err := notifications.NewOutboxDispatcher(dbClient, outbox.NewService(outboxRepo, logg), logg)
	requireResource(ctx, logg, "notification dispatcher", err)

	cascadeRepo := cascade.NewRepository(dbClient.DB())
	notifier, err := cascade.NewVendorNotifier(users.NewRepository(dbClient.DB()), cascadeRepo, dispatcher)
	requireResource(ctx, logg, "vendor notifier", err)

	cascadeService, err := cascade.NewService(cascade.ServiceParams{
		Repo:              cascadeRepo,
		Tx:                dbClient,
		Notifier:          notifier,
		Metrics:           metrics.NewCascadeMetrics(prometheus.DefaultRegisterer),
		Logger:            logg,
		LegacyURLFallback: cfg.Cascade.LegacyURLFallback,
	})
	requireResource(ctx, logg, "cascade service", err)

	sweepJob, err := cron.NewCascadeSweepJob(cron.CascadeSweepJobParams{Logger: logg, Sweeper: cascadeService})
	requireResource(ctx, logg, "cascade sweep job", err)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:         logg,
		DB:             dbClient,
		Repository:     outboxRepo,
		Retention:      cfg.Outbox.Retention,
		ParkedAttempts: cfg.Outbox.MaxAttempts,
	})
	requireResource(ctx, logg, "outbox retention job", err)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.Cron.LockKey+":"+envOrLocal(cfg.App.Env)), cfg.Cron.LockTTL)
	requireResource(ctx, logg, "cron lock", err)

	scheduler, err := cron.NewScheduler(cron.SchedulerParams{
		Logger:     logg,
		Locker:     lock,
		Jobs:       []cron.Job{sweepJob, retentionJob},
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	requireResource(ctx, logg, "scheduler", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":          cfg.App.Env,
		"service_kind": cfg.Service.Kind,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		logg.Info(groupCtx, "cron scheduler started")
		return scheduler.Run(groupCtx)
	})
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("probe server: %w", err)
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
		logg.Error(runCtx, "cron worker failed", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "cron worker shutting down gracefully")
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
