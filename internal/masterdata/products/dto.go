package products

// CreateProductRequest is the payload of POST /products.
type CreateProductRequest struct {
	SKU         string `json:"sku" validate:"required,max=40"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=60"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Unit        string `json:"unit" validate:"omitempty,oneof=piece loaf dozen kg"`
	IsActive    *bool  `json:"is_active"`
	IsPublic    bool   `json:"is_public"`
}

// UpdateProductRequest is the partial payload of PATCH /products/{id}.
type UpdateProductRequest struct {
	SKU         *string `json:"sku" validate:"omitempty,min=1,max=40"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,max=60"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	Unit        *string `json:"unit" validate:"omitempty,oneof=piece loaf dozen kg"`
	IsActive    *bool   `json:"is_active"`
	IsPublic    *bool   `json:"is_public"`
}
