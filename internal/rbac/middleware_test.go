package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakeops/bakeops/internal/shared"
)

type stubResolver struct {
	role Role
	err  error
}

func (s stubResolver) ResolveRole(context.Context, int64, int64) (Role, error) {
	return s.role, s.err
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, withPrincipal bool) (*httptest.ResponseRecorder, Role) {
	t.Helper()
	var seen Role
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if withPrincipal {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{UserID: 1, TenantID: 2}))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

func TestRequireAnyAllowsGrantedRole(t *testing.T) {
	m := Middleware{Resolver: stubResolver{role: RoleBaker}}
	rr, seen := serve(t, m.RequireAny(shared.PermOrdersEdit, shared.PermProductionEdit), true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, RoleBaker, seen)
}

func TestRequireAllRejectsPartialGrant(t *testing.T) {
	m := Middleware{Resolver: stubResolver{role: RoleBaker}}
	rr, _ := serve(t, m.RequireAll(shared.PermOrdersEdit, shared.PermProductionEdit), true)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestRequireWithoutPrincipalIsUnauthorized(t *testing.T) {
	m := Middleware{Resolver: stubResolver{role: RoleOwner}}
	rr, _ := serve(t, m.RequireAny(shared.PermDashboardView), false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireInactiveMembershipIsForbidden(t *testing.T) {
	m := Middleware{Resolver: stubResolver{err: shared.ErrForbidden}}
	rr, _ := serve(t, m.RequireAny(shared.PermDashboardView), true)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRequireResolverFailureIsInternal(t *testing.T) {
	m := Middleware{Resolver: stubResolver{err: errors.New("db down")}}
	rr, _ := serve(t, m.RequireAny(shared.PermDashboardView), true)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
