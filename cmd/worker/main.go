package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/bakeops/bakeops/internal/app"
	jobmetrics "github.com/bakeops/bakeops/internal/jobs"
	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/platform/cache"
	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/production"
	"github.com/bakeops/bakeops/internal/shared"
	"github.com/bakeops/bakeops/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cache.Options{Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)
	tenantCache := cache.NewTenantCache(redisClient, cfg.DashboardCacheTTL)
	auditLogger := shared.NewAuditLogger(pool)

	productionService := production.NewService(
		production.NewRepository(pool),
		locations.NewService(locations.NewRepository(pool), auditLogger, tenantCache, logger),
		products.NewService(products.NewRepository(pool), auditLogger, tenantCache, logger),
		auditLogger,
		tenantCache,
		logger,
	)

	mailJob := &jobs.MailJob{Sender: jobs.LogSender{Logger: logger}, From: cfg.SMTPFrom, Logger: logger, Metrics: metrics}
	rolloverJob := &jobs.ProductionRolloverJob{Production: productionService, Logger: logger, Metrics: metrics}
	cleanupJob := &jobs.IdempotencyCleanupJob{Store: shared.NewIdempotencyStore(pool), Logger: logger, Metrics: metrics}

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.DefaultIdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskProductionRollover, Handler: rolloverJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 0 * * *", Task: jobs.NewProductionRolloverTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
