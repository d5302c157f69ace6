package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bakeops/bakeops/internal/masterdata/locations"
	"github.com/bakeops/bakeops/internal/masterdata/products"
	"github.com/bakeops/bakeops/internal/shared"
)

// IdempotencyModule namespaces storefront order keys.
const IdempotencyModule = "storefront_order"

// PickupLocations lists the active locations of a tenant.
type PickupLocations interface {
	ListActive(ctx context.Context, tenantID int64) ([]locations.Location, error)
}

// ProductReader resolves products of a tenant by id.
type ProductReader interface {
	Lookup(ctx context.Context, tenantID int64, ids []int64) (map[int64]products.Product, error)
}

// Idempotency records processed request keys.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Service implements order placement and fulfilment.
type Service struct {
	repo      Repository
	locations PickupLocations
	products  ProductReader
	idem      Idempotency
	audit     shared.AuditRecorder
	cache     shared.CacheInvalidator
	mail      shared.MailQueue
	logger    *slog.Logger
	now       func() time.Time
}

// Deps groups the collaborators of Service. Nil optional fields fall back
// to no-ops.
type Deps struct {
	Repo        Repository
	Locations   PickupLocations
	Products    ProductReader
	Idempotency Idempotency
	Audit       shared.AuditRecorder
	Cache       shared.CacheInvalidator
	Mail        shared.MailQueue
	Logger      *slog.Logger
}

// NewService wires the service.
func NewService(d Deps) *Service {
	s := &Service{
		repo:      d.Repo,
		locations: d.Locations,
		products:  d.Products,
		idem:      d.Idempotency,
		audit:     d.Audit,
		cache:     d.Cache,
		mail:      d.Mail,
		logger:    d.Logger,
		now:       time.Now,
	}
	if s.audit == nil {
		s.audit = shared.NopAudit{}
	}
	if s.cache == nil {
		s.cache = shared.NopInvalidator{}
	}
	if s.mail == nil {
		s.mail = shared.NopMailQueue{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Place validates a storefront order, snapshots prices and stores it as
// pending. A non-empty idempotency key that was already used yields
// shared.ErrIdempotencyConflict.
func (s *Service) Place(ctx context.Context, shop Shop, idemKey string, req PlaceOrderRequest) (Order, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.Notes = strings.TrimSpace(req.Notes)
	if err := shared.ValidateStruct(req); err != nil {
		return Order{}, err
	}

	active, err := s.locations.ListActive(ctx, shop.TenantID)
	if err != nil {
		return Order{}, err
	}
	var pickup *locations.Location
	for i := range active {
		if active[i].ID == req.PickupLocationID {
			pickup = &active[i]
			break
		}
	}
	if pickup == nil {
		return Order{}, shared.NewValidationError("pickup_location_id", "must be an active pickup location")
	}
	if req.PickupDate < today(s.now(), pickup.Timezone) {
		return Order{}, shared.NewValidationError("pickup_date", "must not be in the past")
	}

	lines, total, err := s.priceLines(ctx, shop.TenantID, req.Lines)
	if err != nil {
		return Order{}, err
	}

	idemKey = strings.TrimSpace(idemKey)
	scopedKey := ""
	if idemKey != "" && s.idem != nil {
		scopedKey = strconv.FormatInt(shop.TenantID, 10) + ":" + idemKey
		if err := s.idem.CheckAndInsert(ctx, scopedKey, IdempotencyModule); err != nil {
			return Order{}, err
		}
	}

	order, err := s.repo.Insert(ctx, Order{
		TenantID:           shop.TenantID,
		Reference:          ulid.Make().String(),
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		PickupLocationID:   pickup.ID,
		PickupLocationName: pickup.Name,
		PickupDate:         req.PickupDate,
		Status:             StatusPending,
		TotalCents:         total,
		Currency:           shop.Currency,
		Notes:              req.Notes,
		Lines:              lines,
	})
	if err != nil {
		if scopedKey != "" {
			if derr := s.idem.Delete(ctx, scopedKey, IdempotencyModule); derr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		return Order{}, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: shop.TenantID,
		Action:   "order.placed",
		Entity:   "order",
		EntityID: strconv.FormatInt(order.ID, 10),
		Meta:     map[string]any{"reference": order.Reference, "total_cents": total},
	}); err != nil {
		s.logger.Warn("audit order", slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, shop.TenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
	if err := s.mail.EnqueueMail(ctx, confirmationMail(shop, order)); err != nil {
		s.logger.Warn("enqueue order confirmation", slog.String("reference", order.Reference), slog.Any("error", err))
	}
	return order, nil
}

// GetByReference looks up an order of the given tenant by its public reference.
func (s *Service) GetByReference(ctx context.Context, tenantID int64, reference string) (Order, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if _, err := ulid.ParseStrict(reference); err != nil {
		return Order{}, fmt.Errorf("order %w", shared.ErrNotFound)
	}
	return s.repo.GetByReference(ctx, tenantID, reference)
}

// List returns one page of orders of the tenant in context.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Order], error) {
	items, total, err := s.repo.List(ctx, shared.TenantIDFromContext(ctx), filters)
	if err != nil {
		return shared.Page[Order]{}, err
	}
	return shared.NewPage(items, filters.PageRequest, total), nil
}

// Get returns an order of the tenant in context.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx), id)
}

// Transition advances an order along pending → confirmed → ready →
// collected, or cancels it before it is ready.
func (s *Service) Transition(ctx context.Context, id int64, req TransitionRequest) (Order, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Order{}, err
	}
	next := Status(req.Status)
	tenantID := shared.TenantIDFromContext(ctx)
	ok, err := s.repo.UpdateStatus(ctx, tenantID, id, predecessors(next), next)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		current, err := s.repo.Get(ctx, tenantID, id)
		if err != nil {
			return Order{}, err
		}
		return Order{}, fmt.Errorf("%w: cannot move order from %s to %s", shared.ErrConflict, current.Status, next)
	}

	if err := s.audit.Record(ctx, shared.AuditEntry(ctx, "order."+string(next), "order", id, nil)); err != nil {
		s.logger.Warn("audit order", slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, tenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
	return s.repo.Get(ctx, tenantID, id)
}

func (s *Service) priceLines(ctx context.Context, tenantID int64, in []LineInput) ([]Line, int64, error) {
	ids := make([]int64, len(in))
	for i, l := range in {
		ids[i] = l.ProductID
	}
	found, err := s.products.Lookup(ctx, tenantID, ids)
	if err != nil {
		return nil, 0, err
	}
	verr := &shared.ValidationError{}
	lines := make([]Line, 0, len(in))
	var total int64
	for i, l := range in {
		p, ok := found[l.ProductID]
		if !ok || !p.IsActive || !p.IsPublic {
			verr.Add("lines["+strconv.Itoa(i)+"].product_id", "must be an available product")
			continue
		}
		lineTotal := p.PriceCents * int64(l.Quantity)
		total += lineTotal
		lines = append(lines, Line{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: p.PriceCents,
			LineTotalCents: lineTotal,
		})
	}
	if err := verr.OrNil(); err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

func confirmationMail(shop Shop, o Order) shared.Mail {
	lines := make([]map[string]any, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = map[string]any{
			"Name":     l.ProductName,
			"Quantity": l.Quantity,
			"Total":    shared.FormatMoney(l.LineTotalCents, o.Currency),
		}
	}
	return shared.Mail{
		To:       o.CustomerEmail,
		Template: shared.MailTemplateOrderConfirmation,
		Data: map[string]any{
			"Name":       o.CustomerName,
			"Shop":       shop.Name,
			"Reference":  o.Reference,
			"PickupDate": o.PickupDate,
			"Location":   o.PickupLocationName,
			"Total":      shared.FormatMoney(o.TotalCents, o.Currency),
			"Lines":      lines,
		},
	}
}

func today(now time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return now.In(loc).Format(time.DateOnly)
}
