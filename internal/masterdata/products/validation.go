package products

import (
	"strings"

	"github.com/bakeops/bakeops/internal/shared"
)

func (s *Service) validateCreate(req *CreateProductRequest) error {
	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	req.Unit = strings.ToLower(strings.TrimSpace(req.Unit))
	if req.Unit == "" {
		req.Unit = UnitPiece
	}
	return shared.ValidateStruct(req)
}

func (s *Service) validateUpdate(req *UpdateProductRequest) error {
	if req.SKU != nil {
		*req.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Name != nil {
		*req.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		*req.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		*req.Category = strings.ToLower(strings.TrimSpace(*req.Category))
	}
	if req.Unit != nil {
		*req.Unit = strings.ToLower(strings.TrimSpace(*req.Unit))
	}
	return shared.ValidateStruct(req)
}

func (req UpdateProductRequest) apply(p *Product) {
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
}
