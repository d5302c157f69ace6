// Package storefront serves the public, unauthenticated shop of a tenant
// addressed by its slug.
package storefront

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/orders"
	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/tenants"
)

// IdempotencyHeader carries the client-chosen key for order placement.
const IdempotencyHeader = "Idempotency-Key"

// TenantResolver maps a slug to an active tenant.
type TenantResolver interface {
	ResolveSlug(ctx context.Context, slug string) (tenants.Tenant, error)
}

// Catalog lists public products.
type Catalog interface {
	Catalog(ctx context.Context, tenantID int64, category string) ([]products.CatalogItem, error)
}

// PickupLocations lists active locations.
type PickupLocations interface {
	ListActive(ctx context.Context, tenantID int64) ([]locations.Location, error)
}

// Orders places and looks up customer orders.
type Orders interface {
	Place(ctx context.Context, shop orders.Shop, idemKey string, req orders.PlaceOrderRequest) (orders.Order, error)
	GetByReference(ctx context.Context, tenantID int64, reference string) (orders.Order, error)
}

// Handler exposes the storefront endpoints.
type Handler struct {
	logger    *slog.Logger
	tenants   TenantResolver
	catalog   Catalog
	locations PickupLocations
	orders    Orders
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, tenants TenantResolver, catalog Catalog, locs PickupLocations, orders Orders) *Handler {
	return &Handler{logger: logger, tenants: tenants, catalog: catalog, locations: locs, orders: orders}
}

// ShopInfo is the public description of a tenant.
type ShopInfo struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

type tenantKey struct{}

func tenantFrom(ctx context.Context) tenants.Tenant {
	t, _ := ctx.Value(tenantKey{}).(tenants.Tenant)
	return t
}

// MountRoutes registers the storefront under a {slug} segment.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/{slug}", func(r chi.Router) {
		r.Use(h.resolveTenant)
		r.Get("/", h.info)
		r.Get("/products", h.products)
		r.Get("/locations", h.pickupLocations)
		r.With(httprate.LimitByIP(20, time.Minute)).Post("/orders", h.placeOrder)
		r.Get("/orders/{reference}", h.showOrder)
	})
}

func (h *Handler) resolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := h.tenants.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey{}, t)))
	})
}

func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	t := tenantFrom(r.Context())
	httpx.JSON(w, http.StatusOK, ShopInfo{Name: t.Name, Slug: t.Slug, Currency: t.Currency, Timezone: t.Timezone})
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	t := tenantFrom(r.Context())
	items, err := h.catalog.Catalog(r.Context(), t.ID, strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category"))))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []products.CatalogItem{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"currency": t.Currency, "items": items})
}

func (h *Handler) pickupLocations(w http.ResponseWriter, r *http.Request) {
	active, err := h.locations.ListActive(r.Context(), tenantFrom(r.Context()).ID)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	items := make([]locations.PickupLocation, len(active))
	for i, l := range active {
		items[i] = l.Pickup()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	t := tenantFrom(r.Context())
	shop := orders.Shop{TenantID: t.ID, Name: t.Name, Currency: t.Currency}
	o, err := h.orders.Place(r.Context(), shop, r.Header.Get(IdempotencyHeader), req)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+o.Reference)
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) showOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByReference(r.Context(), tenantFrom(r.Context()).ID, chi.URLParam(r, "reference"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
