package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/orders"
	"github.com/bakeops/bakeops/internal/shared"
	"github.com/bakeops/bakeops/internal/tenants"
)

type stubTenants map[string]tenants.Tenant

func (s stubTenants) ResolveSlug(_ context.Context, slug string) (tenants.Tenant, error) {
	t, ok := s[slug]
	if !ok {
		return tenants.Tenant{}, fmt.Errorf("tenant %w", shared.ErrNotFound)
	}
	return t, nil
}

type stubCatalog struct{ lastCategory string }

func (s *stubCatalog) Catalog(_ context.Context, tenantID int64, category string) ([]products.CatalogItem, error) {
	s.lastCategory = category
	return []products.CatalogItem{{ID: 10, SKU: "BAG", Name: "Baguette", PriceCents: 120, Unit: "piece"}}, nil
}

type stubLocations struct{}

func (stubLocations) ListActive(context.Context, int64) ([]locations.Location, error) {
	return []locations.Location{{ID: 1, Name: "Main", AddressLine1: "1 Rue", City: "Lyon", Country: "FR", Phone: "+33", IsActive: true}}, nil
}

type stubOrders struct {
	keys   map[string]bool
	placed []orders.Shop
}

func (s *stubOrders) Place(_ context.Context, shop orders.Shop, key string, req orders.PlaceOrderRequest) (orders.Order, error) {
	if key != "" {
		if s.keys[key] {
			return orders.Order{}, shared.ErrIdempotencyConflict
		}
		s.keys[key] = true
	}
	s.placed = append(s.placed, shop)
	return orders.Order{ID: 1, Reference: "01JABCDEFGHJKMNPQRSTVWXYZ0", CustomerName: req.CustomerName, Currency: shop.Currency, Status: orders.StatusPending}, nil
}

func (s *stubOrders) GetByReference(_ context.Context, tenantID int64, ref string) (orders.Order, error) {
	if tenantID == 1 && ref == "01JABCDEFGHJKMNPQRSTVWXYZ0" {
		return orders.Order{ID: 1, Reference: ref, Status: orders.StatusPending}, nil
	}
	return orders.Order{}, fmt.Errorf("order %w", shared.ErrNotFound)
}

func newRouter() (http.Handler, *stubCatalog, *stubOrders) {
	cat := &stubCatalog{}
	ord := &stubOrders{keys: map[string]bool{}}
	h := NewHandler(nil, stubTenants{"crumb": {ID: 1, Name: "Crumb", Slug: "crumb", Currency: "EUR", Timezone: "Europe/Paris", IsActive: true}},
		cat, stubLocations{}, ord)
	r := chi.NewRouter()
	r.Route("/storefront", h.MountRoutes)
	return r, cat, ord
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestUnknownShopIsNotFound(t *testing.T) {
	router, _, _ := newRouter()
	rr := do(router, http.MethodGet, "/storefront/nope/products", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestShopInfoAndCatalog(t *testing.T) {
	router, cat, _ := newRouter()

	rr := do(router, http.MethodGet, "/storefront/crumb/", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var info ShopInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "EUR", info.Currency)

	rr = do(router, http.MethodGet, "/storefront/crumb/products?category=Bread", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bread", cat.lastCategory)
	assert.Contains(t, rr.Body.String(), `"sku":"BAG"`)

	rr = do(router, http.MethodGet, "/storefront/crumb/locations", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Main"`)
	assert.NotContains(t, rr.Body.String(), "is_active")
}

func TestPlaceOrderWithIdempotencyKey(t *testing.T) {
	router, _, ord := newRouter()
	body := `{"customer_name":"Jean","customer_email":"jean@example.com","pickup_location_id":1,"pickup_date":"2026-10-17","lines":[{"product_id":10,"quantity":2}]}`
	headers := map[string]string{IdempotencyHeader: "k-1"}

	rr := do(router, http.MethodPost, "/storefront/crumb/orders", body, headers)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "/storefront/crumb/orders/01JABCDEFGHJKMNPQRSTVWXYZ0", rr.Header().Get("Location"))
	require.Len(t, ord.placed, 1)
	assert.Equal(t, orders.Shop{TenantID: 1, Name: "Crumb", Currency: "EUR"}, ord.placed[0])

	rr = do(router, http.MethodPost, "/storefront/crumb/orders", body, headers)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(router, http.MethodPost, "/storefront/crumb/orders", `{"customer":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestShowOrderByReference(t *testing.T) {
	router, _, _ := newRouter()

	rr := do(router, http.MethodGet, "/storefront/crumb/orders/01JABCDEFGHJKMNPQRSTVWXYZ0", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(router, http.MethodGet, "/storefront/crumb/orders/01JABCDEFGHJKMNPQRSTVWXYZ1", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
