package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bakeops/bakeops/cmd/bakeops/cli"
	"github.com/bakeops/bakeops/internal/app"
	"github.com/bakeops/bakeops/internal/auth"
	"github.com/bakeops/bakeops/internal/dashboard"
	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/masterdata/suppliers"
	"github.com/bakeops/bakeops/internal/observability"
	"github.com/bakeops/bakeops/internal/orders"
	"github.com/bakeops/bakeops/internal/platform/cache"
	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/production"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
	"github.com/bakeops/bakeops/internal/storefront"
	"github.com/bakeops/bakeops/internal/tenants"
	"github.com/bakeops/bakeops/internal/users"
	"github.com/bakeops/bakeops/jobs"
	"github.com/bakeops/bakeops/migrations"
)

const usage = `usage: bakeops [command]

commands:
  serve                      run the HTTP API (default)
  migrate                    apply pending database migrations
  jobs trigger <name>        enqueue a maintenance job
  jobs stats                 show default queue depth
  jobs scheduled             list scheduled tasks`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate":
		err = migrate(ctx, cfg, logger)
	case "jobs":
		jobsCLI := cli.NewJobsCLI(redisOpt(cfg))
		err = jobsCLI.Run(ctx, args, os.Stdout)
		if closeErr := jobsCLI.Close(); closeErr != nil {
			logger.Warn("jobs cli close", slog.Any("error", closeErr))
		}
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(cmd+" failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func redisOpt(cfg *app.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}

func migrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	applied, err := db.Migrate(ctx, pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	logger.Info("migrations applied", slog.Int("count", len(applied)), slog.Any("versions", applied))
	return nil
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
		return err
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cache.Options{Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(redisOpt(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpt(cfg))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(buildRouterParams(cfg, logger, pool, redisClient, jobClient, inspector))

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildRouterParams(cfg *app.Config, logger *slog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, jobClient *jobs.Client, inspector *asynq.Inspector) app.RouterParams {
	sessions := shared.NewSessionManager(redisClient, cfg.SessionTTL)
	tenantCache := cache.NewTenantCache(redisClient, cfg.DashboardCacheTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	rbacService := rbac.NewService(pool)
	rbacMiddleware := rbac.Middleware{Resolver: rbacService, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, sessions, tenantCache, logger)

	tenantService := tenants.NewService(tenants.NewRepository(pool), authRepo, auditLogger, tenantCache, jobClient, logger)
	locationService := locations.NewService(locations.NewRepository(pool), auditLogger, tenantCache, logger)
	supplierService := suppliers.NewService(suppliers.NewRepository(pool), auditLogger, tenantCache, logger)
	productService := products.NewService(products.NewRepository(pool), auditLogger, tenantCache, logger)
	userService := users.NewService(users.NewRepository(pool), auditLogger, tenantCache, jobClient, logger)
	productionService := production.NewService(production.NewRepository(pool), locationService, productService, auditLogger, tenantCache, logger)
	orderService := orders.NewService(orders.Deps{
		Repo:        orders.NewRepository(pool),
		Locations:   locationService,
		Products:    productService,
		Idempotency: idempotency,
		Audit:       auditLogger,
		Cache:       tenantCache,
		Mail:        jobClient,
		Logger:      logger,
	})
	dashboardService := dashboard.NewService(dashboard.NewRepository(pool), tenantCache, logger)

	return app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		Metrics:        observability.NewMetrics(),
		Readiness: map[string]app.Pinger{
			"postgres": pool,
			"redis":    app.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		},

		AuthHandler:        auth.NewHandler(logger, authService, sessions),
		TenantsHandler:     tenants.NewHandler(logger, tenantService, rbacMiddleware),
		LocationsHandler:   locations.NewHandler(logger, locationService, rbacMiddleware),
		SuppliersHandler:   suppliers.NewHandler(logger, supplierService, rbacMiddleware),
		ProductsHandler:    products.NewHandler(logger, productService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, userService, rbacMiddleware),
		ProductionHandler:  production.NewHandler(logger, productionService, rbacMiddleware),
		OrdersHandler:      orders.NewHandler(logger, orderService, rbacMiddleware),
		StorefrontHandler:  storefront.NewHandler(logger, tenantService, productService, locationService, orderService),
		DashboardHandler:   dashboard.NewHandler(logger, dashboardService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService),
		JobHandler:         jobs.NewHandler(inspector, logger),
	}
}
