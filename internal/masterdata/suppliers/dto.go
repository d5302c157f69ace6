package suppliers

// CreateSupplierRequest is the payload of POST /suppliers.
type CreateSupplierRequest struct {
	Name              string   `json:"name" validate:"required,max=120"`
	ContactName       string   `json:"contact_name" validate:"max=120"`
	Email             string   `json:"email" validate:"omitempty,email,max=254"`
	Phone             string   `json:"phone" validate:"max=40"`
	Address           string   `json:"address" validate:"max=500"`
	DeliveryDays      []string `json:"delivery_days" validate:"max=7,dive,weekday"`
	MinimumOrderCents int64    `json:"minimum_order_cents" validate:"gte=0"`
	DeliveryFeeCents  int64    `json:"delivery_fee_cents" validate:"gte=0"`
	PaymentTermsDays  int      `json:"payment_terms_days" validate:"gte=0,lte=365"`
	Notes             string   `json:"notes" validate:"max=2000"`
	IsActive          *bool    `json:"is_active"`
}

// UpdateSupplierRequest is the partial payload of PATCH /suppliers/{id}.
type UpdateSupplierRequest struct {
	Name              *string   `json:"name" validate:"omitempty,min=1,max=120"`
	ContactName       *string   `json:"contact_name" validate:"omitempty,max=120"`
	Email             *string   `json:"email" validate:"omitempty,max=254"`
	Phone             *string   `json:"phone" validate:"omitempty,max=40"`
	Address           *string   `json:"address" validate:"omitempty,max=500"`
	DeliveryDays      *[]string `json:"delivery_days" validate:"omitempty,max=7,dive,weekday"`
	MinimumOrderCents *int64    `json:"minimum_order_cents" validate:"omitempty,gte=0"`
	DeliveryFeeCents  *int64    `json:"delivery_fee_cents" validate:"omitempty,gte=0"`
	PaymentTermsDays  *int      `json:"payment_terms_days" validate:"omitempty,gte=0,lte=365"`
	Notes             *string   `json:"notes" validate:"omitempty,max=2000"`
	IsActive          *bool     `json:"is_active"`
}
