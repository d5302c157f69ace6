package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/shared"
)

type roleKey struct{}

// ContextWithRole stores the resolved membership role.
func ContextWithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the role resolved by the RBAC middleware.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleKey{}).(Role)
	return role, ok && role != ""
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Resolver RoleResolver
	Logger   *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(normalizePermissions(perms), hasAnyPermission)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(normalizePermissions(perms), hasAllPermissions)
}

func (m Middleware) require(required []string, check func(Role, []string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			role, err := m.Resolver.ResolveRole(r.Context(), principal.TenantID, principal.UserID)
			if err != nil {
				if errors.Is(err, shared.ErrForbidden) {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "membership is not active")
					return
				}
				if m.Logger != nil {
					m.Logger.Error("rbac resolve role", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !check(role, required) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithRole(r.Context(), role)))
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, dup := unique[p]; dup {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}

func hasAnyPermission(role Role, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, p := range required {
		if role.Has(p) {
			return true
		}
	}
	return false
}

func hasAllPermissions(role Role, required []string) bool {
	for _, p := range required {
		if !role.Has(p) {
			return false
		}
	}
	return true
}
