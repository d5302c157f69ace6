package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bakeops/bakeops/internal/auth"
	"github.com/bakeops/bakeops/internal/platform/cache"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
	_ "github.com/bakeops/bakeops/testing"
)

type stubRepo struct {
	user        *auth.User
	memberships []auth.Membership
	sessions    map[string]int64
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) ListMemberships(context.Context, int64) ([]auth.Membership, error) {
	return s.memberships, nil
}

func (s *stubRepo) TouchLastLogin(context.Context, int64, time.Time) error { return nil }

func (s *stubRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type fixture struct {
	router   http.Handler
	repo     *stubRepo
	sessions *shared.SessionManager
	cache    *cache.TenantCache
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &stubRepo{
		user: &auth.User{ID: 1, Email: "maria@rosebakery.test", Name: "Maria", PasswordHash: string(hashed), IsActive: true},
		memberships: []auth.Membership{
			{TenantID: 10, TenantName: "Rose Bakery", TenantSlug: "rose-bakery", Currency: "EUR", Timezone: "Europe/Paris", Role: rbac.RoleOwner},
			{TenantID: 20, TenantName: "Sunrise Loaves", TenantSlug: "sunrise-loaves", Currency: "USD", Timezone: "UTC", Role: rbac.RoleBaker},
		},
		sessions: map[string]int64{},
	}
	sessions := shared.NewSessionManager(client, time.Hour)
	tc := cache.NewTenantCache(client, time.Minute)
	handler := auth.NewHandler(nil, auth.NewService(repo, sessions, tc, nil), sessions)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return &fixture{router: r, repo: repo, sessions: sessions, cache: tc, mr: mr}
}

func (f *fixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) login(t *testing.T) auth.LoginResult {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"Maria@RoseBakery.test","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res auth.LoginResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	return res
}

func TestLoginIssuesBearerSessionInFirstTenant(t *testing.T) {
	f := newFixture(t)
	res := f.login(t)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(10), res.Tenant.TenantID)
	assert.Equal(t, "Maria", res.User.Name)
	assert.Contains(t, f.repo.sessions, res.Token)

	sess, err := f.sessions.Load(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.UserID)
	assert.Equal(t, int64(10), sess.TenantID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"maria@rosebakery.test","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestLoginWithoutMembershipIsRejected(t *testing.T) {
	f := newFixture(t)
	f.repo.memberships = nil
	rr := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"maria@rosebakery.test","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginValidatesPayload(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var problem struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Contains(t, problem.Errors, "email")
	assert.Contains(t, problem.Errors, "password")
}

func TestMeRequiresBearerToken(t *testing.T) {
	f := newFixture(t)
	rr := f.do(t, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodGet, "/auth/me", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMeReturnsProfileWithPermissions(t *testing.T) {
	f := newFixture(t)
	res := f.login(t)

	rr := f.do(t, http.MethodGet, "/auth/me", res.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var profile auth.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, rbac.RoleOwner, profile.Role)
	assert.Contains(t, profile.Permissions, shared.PermTenantEdit)
	assert.Len(t, profile.Memberships, 2)
}

func TestSwitchTenantToSameTenantIsNoop(t *testing.T) {
	f := newFixture(t)
	res := f.login(t)

	rr := f.do(t, http.MethodPut, "/auth/tenant", res.Token, `{"tenant_id":10}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var out auth.SwitchTenantResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.False(t, out.Changed)
	assert.False(t, f.mr.Exists(shared.TenantCacheVersionKey(10)))
}

func TestSwitchTenantRewritesSessionAndBumpsCache(t *testing.T) {
	f := newFixture(t)
	res := f.login(t)
	ctx := context.Background()
	before, err := f.cache.Version(ctx, 20)
	require.NoError(t, err)

	rr := f.do(t, http.MethodPut, "/auth/tenant", res.Token, `{"tenant_id":20}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var out auth.SwitchTenantResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.True(t, out.Changed)

	sess, err := f.sessions.Load(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(20), sess.TenantID)

	after, err := f.cache.Version(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	rr = f.do(t, http.MethodGet, "/auth/me", res.Token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var profile auth.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, rbac.RoleBaker, profile.Role)
}

func TestSwitchTenantWithoutMembershipIsForbidden(t *testing.T) {
	f := newFixture(t)
	res := f.login(t)
	rr := f.do(t, http.MethodPut, "/auth/tenant", res.Token, `{"tenant_id":99}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t)
	res := f.login(t)

	rr := f.do(t, http.MethodPost, "/auth/logout", res.Token, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.NotContains(t, f.repo.sessions, res.Token)

	rr = f.do(t, http.MethodGet, "/auth/me", res.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
