package products

import (
	"context"
	"log/slog"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/shared"
)

type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  shared.CacheInvalidator
	logger *slog.Logger
}

func NewService(repo Repository, audit shared.AuditRecorder, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters, extra ListFilters) (shared.Page[Product], error) {
	items, total, err := s.repo.List(ctx, shared.TenantIDFromContext(ctx), filters, extra)
	if err != nil {
		return shared.Page[Product]{}, err
	}
	return shared.NewPage(items, filters.PageRequest, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
}

// Lookup returns the tenant's products for ids, keyed by id. Missing ids are
// simply absent from the map.
func (s *Service) Lookup(ctx context.Context, tenantID int64, ids []int64) (map[int64]Product, error) {
	return s.repo.GetMany(ctx, tenantID, ids)
}

// Catalog lists active public products for the storefront.
func (s *Service) Catalog(ctx context.Context, tenantID int64, category string) ([]CatalogItem, error) {
	active, public := true, true
	items, _, err := s.repo.List(ctx, tenantID, mdshared.ListFilters{
		PageRequest: shared.PageRequest{Page: 1, Limit: shared.MaxPerPage},
		IsActive:    &active,
	}, ListFilters{Category: category, IsPublic: &public})
	if err != nil {
		return nil, err
	}
	out := make([]CatalogItem, 0, len(items))
	for _, p := range items {
		out = append(out, p.Catalog())
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	if err := s.validateCreate(&req); err != nil {
		return Product{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := s.repo.Create(ctx, Product{
		TenantID:    shared.TenantIDFromContext(ctx),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Unit:        req.Unit,
		IsActive:    active,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return Product{}, err
	}
	s.afterWrite(ctx, "product.created", created.ID, map[string]any{"sku": created.SKU})
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	if err := s.validateUpdate(&req); err != nil {
		return Product{}, err
	}
	current, err := s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
	if err != nil {
		return Product{}, err
	}
	before := current.PriceCents
	req.apply(&current)
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Product{}, err
	}
	var meta map[string]any
	if before != updated.PriceCents {
		meta = map[string]any{"price_cents_from": before, "price_cents_to": updated.PriceCents}
	}
	s.afterWrite(ctx, "product.updated", id, meta)
	return updated, nil
}

// Delete removes a product. Products used by schedules or orders are
// refused with a conflict.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, shared.TenantIDFromContext(ctx), id); err != nil {
		return err
	}
	s.afterWrite(ctx, "product.deleted", id, nil)
	return nil
}

func (s *Service) afterWrite(ctx context.Context, action string, id int64, meta map[string]any) {
	entry := shared.AuditEntry(ctx, action, "product", id, meta)
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit product", slog.String("action", action), slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, entry.TenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
}
