package suppliers

import (
	"time"
)

// Supplier represents an ingredient or packaging vendor.
type Supplier struct {
	ID                int64     `json:"id"`
	TenantID          int64     `json:"tenant_id"`
	Name              string    `json:"name"`
	ContactName       string    `json:"contact_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Address           string    `json:"address"`
	DeliveryDays      []string  `json:"delivery_days"`
	MinimumOrderCents int64     `json:"minimum_order_cents"`
	DeliveryFeeCents  int64     `json:"delivery_fee_cents"`
	PaymentTermsDays  int       `json:"payment_terms_days"`
	Notes             string    `json:"notes"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListFilters narrows supplier listings.
type ListFilters struct {
	DeliversOn string
}
