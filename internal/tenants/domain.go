package tenants

import "time"

// Tenant is a bakery business; every other record is scoped to one.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Currency  string    `json:"currency"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location loads the tenant's IANA zone, falling back to UTC.
func (t Tenant) Location() *time.Location {
	if loc, err := time.LoadLocation(t.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// Owner is the first account created together with a tenant.
type Owner struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// SignupRequest creates a tenant and its owner account.
type SignupRequest struct {
	TenantName    string `json:"tenant_name" validate:"required,max=120"`
	Slug          string `json:"slug" validate:"required,slug"`
	Currency      string `json:"currency" validate:"required,currency"`
	Timezone      string `json:"timezone" validate:"required,timezone"`
	OwnerName     string `json:"owner_name" validate:"required,max=120"`
	OwnerEmail    string `json:"owner_email" validate:"required,email,max=254"`
	OwnerPassword string `json:"owner_password" validate:"required,min=8,bcryptpw"`
}

// SignupResult is returned by POST /tenants.
type SignupResult struct {
	Tenant Tenant `json:"tenant"`
	Owner  Owner  `json:"owner"`
}

// UpdateTenantRequest edits the current tenant.
type UpdateTenantRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Currency *string `json:"currency" validate:"omitempty,currency"`
	Timezone *string `json:"timezone" validate:"omitempty,timezone"`
}
