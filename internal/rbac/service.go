package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

// RoleResolver looks up the role a user currently holds in a tenant.
// Inactive or missing memberships return shared.ErrForbidden.
type RoleResolver interface {
	ResolveRole(ctx context.Context, tenantID, userID int64) (Role, error)
}

// Service resolves membership roles from Postgres.
type Service struct {
	db db.Querier
}

// NewService constructs a Service backed by the provided pool.
func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// ResolveRole implements RoleResolver.
func (s *Service) ResolveRole(ctx context.Context, tenantID, userID int64) (Role, error) {
	var raw string
	err := s.db.QueryRow(ctx, `
		SELECT m.role
		FROM tenant_memberships m
		JOIN tenants t ON t.id = m.tenant_id
		JOIN users u ON u.id = m.user_id
		WHERE m.tenant_id = $1 AND m.user_id = $2
		  AND m.is_active AND t.is_active AND u.is_active`, tenantID, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrForbidden
		}
		return "", err
	}
	role, ok := ParseRole(raw)
	if !ok {
		return "", shared.ErrForbidden
	}
	return role, nil
}

// EffectivePermissions returns the sorted permissions of the principal in its
// active tenant.
func EffectivePermissions(ctx context.Context, resolver RoleResolver, p shared.Principal) (Role, []string, error) {
	role, err := resolver.ResolveRole(ctx, p.TenantID, p.UserID)
	if err != nil {
		return "", nil, err
	}
	return role, role.Permissions(), nil
}
