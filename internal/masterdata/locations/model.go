package locations

import "time"

// Location is a bakery shop or production kitchen of a tenant.
type Location struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	Phone        string    `json:"phone"`
	Timezone     string    `json:"timezone"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PickupLocation is the storefront projection of an active location.
type PickupLocation struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// Pickup projects the location for the storefront.
func (l Location) Pickup() PickupLocation {
	return PickupLocation{
		ID:           l.ID,
		Name:         l.Name,
		AddressLine1: l.AddressLine1,
		AddressLine2: l.AddressLine2,
		City:         l.City,
		PostalCode:   l.PostalCode,
		Country:      l.Country,
		Phone:        l.Phone,
	}
}
