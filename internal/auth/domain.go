package auth

import (
	"time"

	"github.com/bakeops/bakeops/internal/rbac"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Membership is an active tenant the user may act in.
type Membership struct {
	TenantID   int64     `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	TenantSlug string    `json:"tenant_slug"`
	Currency   string    `json:"currency"`
	Timezone   string    `json:"timezone"`
	Role       rbac.Role `json:"role"`
	LocationID *int64    `json:"location_id,omitempty"`
}

// LoginRequest is the JSON body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,bcryptpw"`
}

// UserView is the public projection of a user.
type UserView struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResult carries the issued bearer token.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      UserView   `json:"user"`
	Tenant    Membership `json:"tenant"`
}

// Profile answers GET /auth/me.
type Profile struct {
	User        UserView     `json:"user"`
	Tenant      Membership   `json:"tenant"`
	Role        rbac.Role    `json:"role"`
	Permissions []string     `json:"permissions"`
	Memberships []Membership `json:"memberships"`
}

// SwitchTenantRequest is the JSON body of PUT /auth/tenant.
type SwitchTenantRequest struct {
	TenantID int64 `json:"tenant_id" validate:"required,gt=0"`
}

// SwitchTenantResult reports whether the active tenant actually changed.
type SwitchTenantResult struct {
	Changed  bool  `json:"changed"`
	TenantID int64 `json:"tenant_id"`
}

func toView(u *User) UserView {
	return UserView{ID: u.ID, Email: u.Email, Name: u.Name, LastLoginAt: u.LastLoginAt}
}
