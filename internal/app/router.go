package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bakeops/bakeops/internal/auth"
	"github.com/bakeops/bakeops/internal/dashboard"
	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/masterdata/suppliers"
	"github.com/bakeops/bakeops/internal/observability"
	"github.com/bakeops/bakeops/internal/orders"
	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/production"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
	"github.com/bakeops/bakeops/internal/storefront"
	"github.com/bakeops/bakeops/internal/tenants"
	"github.com/bakeops/bakeops/internal/users"
	"github.com/bakeops/bakeops/jobs"
)

// Pinger reports whether a dependency is reachable. *pgxpool.Pool
// satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Metrics        *observability.Metrics
	Readiness      map[string]Pinger

	AuthHandler        *auth.Handler
	TenantsHandler     *tenants.Handler
	LocationsHandler   *locations.Handler
	SuppliersHandler   *suppliers.Handler
	ProductsHandler    *products.Handler
	UsersHandler       *users.Handler
	ProductionHandler  *production.Handler
	OrdersHandler      *orders.Handler
	StorefrontHandler  *storefront.Handler
	DashboardHandler   *dashboard.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Bakeops defaults.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Readiness, logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.StorefrontHandler != nil {
			r.Route("/storefront", params.StorefrontHandler.MountRoutes)
		}
		if params.TenantsHandler != nil {
			r.Route("/tenants", func(r chi.Router) {
				params.TenantsHandler.MountSignup(r)
				r.With(auth.RequireSession(params.SessionManager, logger)).Route("/mine", params.TenantsHandler.MountMine)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(params.SessionManager, logger))
			if params.TenantsHandler != nil {
				r.Route("/tenant", params.TenantsHandler.MountCurrent)
			}
			if params.LocationsHandler != nil {
				r.Route("/locations", params.LocationsHandler.MountRoutes)
			}
			if params.SuppliersHandler != nil {
				r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
			}
			if params.ProductsHandler != nil {
				r.Route("/products", params.ProductsHandler.MountRoutes)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.ProductionHandler != nil {
				r.Route("/production", params.ProductionHandler.MountRoutes)
			}
			if params.OrdersHandler != nil {
				r.Route("/orders", params.OrdersHandler.MountRoutes)
			}
			if params.DashboardHandler != nil {
				r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			}
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountRoutes)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})
	return r
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func readinessHandler(checks map[string]Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		out := readiness{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("check", name), slog.Any("error", err))
				out.Checks[name] = "down"
				out.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			out.Checks[name] = "up"
		}
		httpx.JSON(w, status, out)
	}
}
