package products

import (
	"time"
)

// Units a product can be sold in.
const (
	UnitPiece = "piece"
	UnitLoaf  = "loaf"
	UnitDozen = "dozen"
	UnitKg    = "kg"
)

// Product represents a baked good the tenant produces and sells.
type Product struct {
	ID          int64     `json:"id"`
	TenantID    int64     `json:"tenant_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"price_cents"`
	Unit        string    `json:"unit"`
	IsActive    bool      `json:"is_active"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CatalogItem is the storefront projection of a public product.
type CatalogItem struct {
	ID          int64  `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Unit        string `json:"unit"`
}

// Catalog projects the product for the storefront.
func (p Product) Catalog() CatalogItem {
	return CatalogItem{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		PriceCents:  p.PriceCents,
		Unit:        p.Unit,
	}
}

// ListFilters narrows product listings.
type ListFilters struct {
	Category string
	IsPublic *bool
}
