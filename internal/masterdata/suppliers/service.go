package suppliers

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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters, extra ListFilters) (shared.Page[Supplier], error) {
	if extra.DeliversOn != "" && !shared.IsWeekday(extra.DeliversOn) {
		return shared.Page[Supplier]{}, shared.NewValidationError("delivers_on", "must be one of: mon, tue, wed, thu, fri, sat, sun")
	}
	items, total, err := s.repo.List(ctx, shared.TenantIDFromContext(ctx), filters, extra)
	if err != nil {
		return shared.Page[Supplier]{}, err
	}
	return shared.NewPage(items, filters.PageRequest, total), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
}

func (s *Service) Create(ctx context.Context, req CreateSupplierRequest) (Supplier, error) {
	if err := s.validateCreate(&req); err != nil {
		return Supplier{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := s.repo.Create(ctx, Supplier{
		TenantID:          shared.TenantIDFromContext(ctx),
		Name:              req.Name,
		ContactName:       req.ContactName,
		Email:             req.Email,
		Phone:             req.Phone,
		Address:           req.Address,
		DeliveryDays:      req.DeliveryDays,
		MinimumOrderCents: req.MinimumOrderCents,
		DeliveryFeeCents:  req.DeliveryFeeCents,
		PaymentTermsDays:  req.PaymentTermsDays,
		Notes:             req.Notes,
		IsActive:          active,
	})
	if err != nil {
		return Supplier{}, err
	}
	s.afterWrite(ctx, "supplier.created", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateSupplierRequest) (Supplier, error) {
	if err := s.validateUpdate(&req); err != nil {
		return Supplier{}, err
	}
	current, err := s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
	if err != nil {
		return Supplier{}, err
	}
	req.apply(&current)
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Supplier{}, err
	}
	s.afterWrite(ctx, "supplier.updated", id)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, shared.TenantIDFromContext(ctx), id); err != nil {
		return err
	}
	s.afterWrite(ctx, "supplier.deleted", id)
	return nil
}

func (s *Service) afterWrite(ctx context.Context, action string, id int64) {
	entry := shared.AuditEntry(ctx, action, "supplier", id, nil)
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit supplier", slog.String("action", action), slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, entry.TenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
}
