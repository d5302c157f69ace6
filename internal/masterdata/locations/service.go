package locations

import (
	"context"
	"log/slog"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/shared"
)

// Service implements location use cases for the tenant in context.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  shared.CacheInvalidator
	logger *slog.Logger
}

// NewService wires the service. Nil audit and cache fall back to no-ops.
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

// List returns one page of locations.
func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) (shared.Page[Location], error) {
	items, total, err := s.repo.List(ctx, shared.TenantIDFromContext(ctx), filters)
	if err != nil {
		return shared.Page[Location]{}, err
	}
	return shared.NewPage(items, filters.PageRequest, total), nil
}

// Get fetches a location of the current tenant.
func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
}

// Create validates and stores a new location. The timezone defaults to the
// tenant's own.
func (s *Service) Create(ctx context.Context, req CreateLocationRequest) (Location, error) {
	if err := s.validateCreate(&req); err != nil {
		return Location{}, err
	}
	tenantID := shared.TenantIDFromContext(ctx)
	tz := req.Timezone
	if tz == "" {
		var err error
		if tz, err = s.repo.TenantTimezone(ctx, tenantID); err != nil {
			return Location{}, err
		}
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	loc, err := s.repo.Create(ctx, Location{
		TenantID:     tenantID,
		Code:         req.Code,
		Name:         req.Name,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		Phone:        req.Phone,
		Timezone:     tz,
		IsActive:     active,
	})
	if err != nil {
		return Location{}, err
	}
	s.afterWrite(ctx, "location.created", loc.ID, map[string]any{"code": loc.Code})
	return loc, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateLocationRequest) (Location, error) {
	if err := s.validateUpdate(&req); err != nil {
		return Location{}, err
	}
	loc, err := s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
	if err != nil {
		return Location{}, err
	}
	req.apply(&loc)
	updated, err := s.repo.Update(ctx, loc)
	if err != nil {
		return Location{}, err
	}
	s.afterWrite(ctx, "location.updated", id, nil)
	return updated, nil
}

// Delete removes a location. Locations still referenced by schedules or
// orders are refused with a conflict; deactivate them instead.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, shared.TenantIDFromContext(ctx), id); err != nil {
		return err
	}
	s.afterWrite(ctx, "location.deleted", id, nil)
	return nil
}

// ListActive returns every active location, for the storefront and pickers.
func (s *Service) ListActive(ctx context.Context, tenantID int64) ([]Location, error) {
	active := true
	items, _, err := s.repo.List(ctx, tenantID, mdshared.ListFilters{
		PageRequest: shared.PageRequest{Page: 1, Limit: shared.MaxPerPage},
		IsActive:    &active,
	})
	return items, err
}

func (s *Service) afterWrite(ctx context.Context, action string, id int64, meta map[string]any) {
	entry := shared.AuditEntry(ctx, action, "location", id, meta)
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit location", slog.String("action", action), slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, entry.TenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
}
