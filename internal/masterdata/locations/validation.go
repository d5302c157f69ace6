package locations

import (
	"strings"

	"github.com/bakeops/bakeops/internal/shared"
)

func (req *CreateLocationRequest) normalize() {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	req.AddressLine1 = strings.TrimSpace(req.AddressLine1)
	req.AddressLine2 = strings.TrimSpace(req.AddressLine2)
	req.City = strings.TrimSpace(req.City)
	req.PostalCode = strings.TrimSpace(req.PostalCode)
	req.Country = strings.ToUpper(strings.TrimSpace(req.Country))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Timezone = strings.TrimSpace(req.Timezone)
}

func (req *UpdateLocationRequest) normalize() {
	trim := func(p *string, upper bool) {
		if p == nil {
			return
		}
		*p = strings.TrimSpace(*p)
		if upper {
			*p = strings.ToUpper(*p)
		}
	}
	trim(req.Code, true)
	trim(req.Name, false)
	trim(req.AddressLine1, false)
	trim(req.AddressLine2, false)
	trim(req.City, false)
	trim(req.PostalCode, false)
	trim(req.Country, true)
	trim(req.Phone, false)
	trim(req.Timezone, false)
}

func (s *Service) validateCreate(req *CreateLocationRequest) error {
	req.normalize()
	return shared.ValidateStruct(req)
}

func (s *Service) validateUpdate(req *UpdateLocationRequest) error {
	req.normalize()
	return shared.ValidateStruct(req)
}

func (req UpdateLocationRequest) apply(loc *Location) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&loc.Code, req.Code)
	set(&loc.Name, req.Name)
	set(&loc.AddressLine1, req.AddressLine1)
	set(&loc.AddressLine2, req.AddressLine2)
	set(&loc.City, req.City)
	set(&loc.PostalCode, req.PostalCode)
	set(&loc.Country, req.Country)
	set(&loc.Phone, req.Phone)
	set(&loc.Timezone, req.Timezone)
	if req.IsActive != nil {
		loc.IsActive = *req.IsActive
	}
}
