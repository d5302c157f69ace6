package users

import (
	"fmt"
	"time"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

// Member is a user account seen through its membership of one tenant.
type Member struct {
	UserID      int64      `json:"user_id"`
	TenantID    int64      `json:"-"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        rbac.Role  `json:"role"`
	LocationID  *int64     `json:"location_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewMember carries what the repository needs to add a member.
type NewMember struct {
	TenantID     int64
	Email        string
	Name         string
	PasswordHash string
	Role         rbac.Role
	LocationID   *int64
}

// ListFilters narrows the member list.
type ListFilters struct {
	mdshared.ListFilters
	Role rbac.Role
}

// CreateUserRequest invites a user into the current tenant. Password and
// name are ignored when the email already belongs to an account.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Name       string `json:"name" validate:"required,max=120"`
	Password   string `json:"password" validate:"required,min=8,bcryptpw"`
	Role       string `json:"role" validate:"required,oneof=owner admin manager baker staff"`
	LocationID *int64 `json:"location_id" validate:"omitempty,gt=0"`
}

// UpdateMembershipRequest edits role, location or activity. A location_id of
// zero clears the assignment.
type UpdateMembershipRequest struct {
	Role       *string `json:"role" validate:"omitempty,oneof=owner admin manager baker staff"`
	LocationID *int64  `json:"location_id" validate:"omitempty,gte=0"`
	IsActive   *bool   `json:"is_active"`
}

// ErrLastOwner is returned when a change would leave a tenant without an
// active owner.
var ErrLastOwner = fmt.Errorf("%w: tenant must keep at least one active owner", shared.ErrConflict)

func (m Member) activeOwner() bool {
	return m.IsActive && m.Role == rbac.RoleOwner
}

// removesLastOwner reports whether replacing current with next drops the
// tenant's active owner count to zero.
func removesLastOwner(current, next Member, activeOwners int) bool {
	return current.activeOwner() && !next.activeOwner() && activeOwners <= 1
}
