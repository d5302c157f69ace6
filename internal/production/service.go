package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/shared"
)

// LocationReader resolves a location of the tenant in context.
type LocationReader interface {
	Get(ctx context.Context, id int64) (locations.Location, error)
}

// ProductReader resolves products of a tenant by id.
type ProductReader interface {
	Lookup(ctx context.Context, tenantID int64, ids []int64) (map[int64]products.Product, error)
}

// Service implements production planning for the tenant in context.
type Service struct {
	repo      Repository
	locations LocationReader
	products  ProductReader
	audit     shared.AuditRecorder
	cache     shared.CacheInvalidator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the service. Nil audit and cache fall back to no-ops.
func NewService(repo Repository, locs LocationReader, prods ProductReader, audit shared.AuditRecorder, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		locations: locs,
		products:  prods,
		audit:     audit,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns one page of schedules.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Schedule], error) {
	items, total, err := s.repo.List(ctx, shared.TenantIDFromContext(ctx), filters)
	if err != nil {
		return shared.Page[Schedule]{}, err
	}
	return shared.NewPage(items, filters.PageRequest, total), nil
}

// Get returns a schedule with its items.
func (s *Service) Get(ctx context.Context, id int64) (Schedule, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
}

// Create stores a draft schedule for an active location on a date that is
// not in the past for that location.
func (s *Service) Create(ctx context.Context, req CreateScheduleRequest) (Schedule, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Schedule{}, err
	}
	p, _ := shared.PrincipalFromContext(ctx)

	loc, err := s.locations.Get(ctx, req.LocationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Schedule{}, shared.NewValidationError("location_id", "must be a location of this tenant")
		}
		return Schedule{}, err
	}
	if !loc.IsActive {
		return Schedule{}, shared.NewValidationError("location_id", "must be an active location")
	}
	if req.ProductionDate < s.today(loc.Timezone) {
		return Schedule{}, shared.NewValidationError("production_date", "must not be in the past")
	}
	if err := s.checkProducts(ctx, p.TenantID, req.Items); err != nil {
		return Schedule{}, err
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.Insert(ctx, Schedule{
			TenantID:       p.TenantID,
			LocationID:     loc.ID,
			ProductionDate: req.ProductionDate,
			Status:         StatusDraft,
			Notes:          req.Notes,
			CreatedBy:      &p.UserID,
		})
		if err != nil {
			return err
		}
		return tx.InsertItems(ctx, id, req.Items)
	})
	if err != nil {
		return Schedule{}, err
	}
	s.afterWrite(ctx, "production.created", id, map[string]any{
		"location_id": loc.ID,
		"date":        req.ProductionDate,
		"items":       len(req.Items),
	})
	return s.repo.Get(ctx, p.TenantID, id)
}

// ReplaceItems swaps the items of a draft schedule.
func (s *Service) ReplaceItems(ctx context.Context, id int64, req ReplaceItemsRequest) (Schedule, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Schedule{}, err
	}
	tenantID := shared.TenantIDFromContext(ctx)
	if err := s.checkProducts(ctx, tenantID, req.Items); err != nil {
		return Schedule{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Lock(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !current.Status.CanEdit() {
			return fmt.Errorf("%w: items of a %s schedule cannot change", shared.ErrConflict, current.Status)
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		return tx.InsertItems(ctx, id, req.Items)
	})
	if err != nil {
		return Schedule{}, err
	}
	s.afterWrite(ctx, "production.items_replaced", id, map[string]any{"items": len(req.Items)})
	return s.repo.Get(ctx, tenantID, id)
}

// Transition moves a schedule along draft → published → completed, or
// cancels it before completion.
func (s *Service) Transition(ctx context.Context, id int64, req TransitionRequest) (Schedule, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Schedule{}, err
	}
	next := Status(req.Status)
	tenantID := shared.TenantIDFromContext(ctx)
	var from Status
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Lock(ctx, tenantID, id)
		if err != nil {
			return err
		}
		from = current.Status
		if !from.CanTransitionTo(next) {
			return fmt.Errorf("%w: cannot move schedule from %s to %s", shared.ErrConflict, from, next)
		}
		return tx.UpdateStatus(ctx, id, next)
	})
	if err != nil {
		return Schedule{}, err
	}
	s.afterWrite(ctx, "production."+string(next), id, map[string]any{"from": string(from), "to": string(next)})
	return s.repo.Get(ctx, tenantID, id)
}

// Delete removes a draft schedule.
func (s *Service) Delete(ctx context.Context, id int64) error {
	tenantID := shared.TenantIDFromContext(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Lock(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return fmt.Errorf("%w: only draft schedules can be deleted", shared.ErrConflict)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx, "production.deleted", id, nil)
	return nil
}

// RolloverPast completes published schedules whose day is over, bumps the
// cache of every tenant touched and returns the number of schedules
// completed. It runs from the scheduler, outside any request tenant.
func (s *Service) RolloverPast(ctx context.Context) (int64, error) {
	completed, tenants, err := s.repo.CompletePublishedBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, id := range tenants {
		if err := s.cache.Bump(ctx, id); err != nil {
			s.logger.Warn("bump tenant cache", slog.Int64("tenant_id", id), slog.Any("error", err))
		}
	}
	return completed, nil
}

func (s *Service) today(tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return s.now().In(loc).Format(DateLayout)
}

func (s *Service) checkProducts(ctx context.Context, tenantID int64, items []ItemInput) error {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	found, err := s.products.Lookup(ctx, tenantID, ids)
	if err != nil {
		return err
	}
	verr := &shared.ValidationError{}
	for i, it := range items {
		field := "items[" + strconv.Itoa(i) + "].product_id"
		p, ok := found[it.ProductID]
		switch {
		case !ok:
			verr.Add(field, "must be a product of this tenant")
		case !p.IsActive:
			verr.Add(field, "must be an active product")
		}
	}
	return verr.OrNil()
}

func (s *Service) afterWrite(ctx context.Context, action string, id int64, meta map[string]any) {
	entry := shared.AuditEntry(ctx, action, "production_schedule", id, meta)
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit production schedule", slog.String("action", action), slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, entry.TenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
}
