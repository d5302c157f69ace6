package rbac

import (
	"slices"
	"strings"

	"github.com/bakeops/bakeops/internal/shared"
)

// Role is a tenant membership role.
type Role string

// Membership roles, most privileged first.
const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleBaker   Role = "baker"
	RoleStaff   Role = "staff"
)

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleManager, RoleBaker, RoleStaff}
}

// ParseRole normalises raw input into a known Role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(Roles(), role) {
		return role, true
	}
	return "", false
}

var rolePermissions = map[Role][]string{
	RoleOwner: all(),
	RoleAdmin: all(),
	RoleManager: {
		shared.PermDashboardView,
		shared.PermUsersView,
		shared.PermLocationsView,
		shared.PermSuppliersView, shared.PermSuppliersEdit,
		shared.PermProductsView, shared.PermProductsEdit,
		shared.PermProductionView, shared.PermProductionEdit,
		shared.PermOrdersView, shared.PermOrdersEdit,
	},
	RoleBaker: {
		shared.PermDashboardView,
		shared.PermLocationsView,
		shared.PermProductsView,
		shared.PermProductionView, shared.PermProductionEdit,
	},
	RoleStaff: {
		shared.PermDashboardView,
		shared.PermLocationsView,
		shared.PermProductsView,
		shared.PermProductionView,
		shared.PermOrdersView, shared.PermOrdersEdit,
	},
}

func all() []string {
	return append(shared.CoreScopes(), shared.OperationsScopes()...)
}

// Permissions returns the permissions granted to role, sorted.
func (r Role) Permissions() []string {
	perms := slices.Clone(rolePermissions[r])
	slices.Sort(perms)
	return perms
}

// Has reports whether role grants perm.
func (r Role) Has(perm string) bool {
	return slices.Contains(rolePermissions[r], perm)
}

// CanAssign reports whether an actor holding r may grant target to someone.
// Only owners hand out ownership.
func (r Role) CanAssign(target Role) bool {
	if target == RoleOwner {
		return r == RoleOwner
	}
	return r.Has(shared.PermUsersEdit)
}
