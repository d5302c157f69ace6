package locations

// CreateLocationRequest is the payload of POST /locations.
type CreateLocationRequest struct {
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=120"`
	AddressLine1 string `json:"address_line1" validate:"required,max=200"`
	AddressLine2 string `json:"address_line2" validate:"max=200"`
	City         string `json:"city" validate:"required,max=120"`
	PostalCode   string `json:"postal_code" validate:"max=20"`
	Country      string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Phone        string `json:"phone" validate:"max=40"`
	Timezone     string `json:"timezone" validate:"omitempty,timezone"`
	IsActive     *bool  `json:"is_active"`
}

// UpdateLocationRequest is the partial payload of PATCH /locations/{id}.
type UpdateLocationRequest struct {
	Code         *string `json:"code" validate:"omitempty,min=1,max=20"`
	Name         *string `json:"name" validate:"omitempty,min=1,max=120"`
	AddressLine1 *string `json:"address_line1" validate:"omitempty,min=1,max=200"`
	AddressLine2 *string `json:"address_line2" validate:"omitempty,max=200"`
	City         *string `json:"city" validate:"omitempty,min=1,max=120"`
	PostalCode   *string `json:"postal_code" validate:"omitempty,max=20"`
	Country      *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Phone        *string `json:"phone" validate:"omitempty,max=40"`
	Timezone     *string `json:"timezone" validate:"omitempty,timezone"`
	IsActive     *bool   `json:"is_active"`
}
