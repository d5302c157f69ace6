package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeops/bakeops/internal/platform/cache"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

type stubRepo struct {
	calls   atomic.Int32
	lastDay atomic.Value
	delay   time.Duration
}

func (s *stubRepo) TenantSettings(context.Context, int64) (string, string, error) {
	return "EUR", "Pacific/Auckland", nil
}

func (s *stubRepo) Stats(_ context.Context, _ int64, day string) (Stats, error) {
	n := s.calls.Add(1)
	s.lastDay.Store(day)
	time.Sleep(s.delay)
	return Stats{Date: day, ActiveLocations: 2, TeamMembers: 5, OpenOrders: int(n), RevenueTodayCents: 4200}, nil
}

func newTenantCache(t *testing.T) *cache.TenantCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewTenantCache(client, time.Minute)
}

func tenantCtx() context.Context {
	return shared.ContextWithPrincipal(context.Background(), shared.Principal{UserID: 1, TenantID: 9})
}

func TestStatsUseTenantLocalDay(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC) }

	st, err := svc.Stats(tenantCtx())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", st.Date)
	assert.Equal(t, "EUR", st.Currency)
	assert.Equal(t, "2026-10-17", repo.lastDay.Load())
}

func TestStatsCachedUntilBump(t *testing.T) {
	repo := &stubRepo{}
	tc := newTenantCache(t)
	svc := NewService(repo, tc, nil)

	first, err := svc.Stats(tenantCtx())
	require.NoError(t, err)
	second, err := svc.Stats(tenantCtx())
	require.NoError(t, err)
	assert.Equal(t, first.OpenOrders, second.OpenOrders)
	assert.Equal(t, int32(1), repo.calls.Load())

	require.NoError(t, tc.Bump(context.Background(), 9))
	third, err := svc.Stats(tenantCtx())
	require.NoError(t, err)
	assert.Equal(t, 2, third.OpenOrders)
}

func TestConcurrentMissesShareOneQuery(t *testing.T) {
	repo := &stubRepo{delay: 50 * time.Millisecond}
	svc := NewService(repo, newTenantCache(t), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Stats(tenantCtx())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), repo.calls.Load())
}

type fixedRole rbac.Role

func (f fixedRole) ResolveRole(context.Context, int64, int64) (rbac.Role, error) {
	return rbac.Role(f), nil
}

func TestStatsRoute(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, nil)
	h := NewHandler(nil, svc, rbac.Middleware{Resolver: fixedRole(rbac.RoleStaff)})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{UserID: 1, TenantID: 9})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Route("/dashboard", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var st Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
	assert.Equal(t, 5, st.TeamMembers)
	assert.Equal(t, int64(4200), st.RevenueTodayCents)
}
