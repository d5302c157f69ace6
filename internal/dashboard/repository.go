package dashboard

import (
	"context"

	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

// Repository aggregates tenant-wide counters.
type Repository interface {
	TenantSettings(ctx context.Context, tenantID int64) (currency, timezone string, err error)
	Stats(ctx context.Context, tenantID int64, day string) (Stats, error)
}

type repository struct {
	db db.Querier
}

// NewRepository returns the Postgres repository.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

func (r *repository) TenantSettings(ctx context.Context, tenantID int64) (string, string, error) {
	var currency, tz string
	err := r.db.QueryRow(ctx, `SELECT currency, timezone FROM tenants WHERE id = $1`, tenantID).Scan(&currency, &tz)
	return currency, tz, shared.MapPgError(err, "tenant")
}

func (r *repository) Stats(ctx context.Context, tenantID int64, day string) (Stats, error) {
	s := Stats{Date: day}
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM locations WHERE tenant_id = $1 AND is_active),
			(SELECT COUNT(*) FROM tenant_memberships WHERE tenant_id = $1 AND is_active),
			(SELECT COUNT(*) FROM suppliers WHERE tenant_id = $1 AND is_active),
			(SELECT COALESCE(SUM(i.quantity), 0)
				FROM production_schedule_items i
				JOIN production_schedules ps ON ps.id = i.schedule_id
				WHERE ps.tenant_id = $1 AND ps.production_date = $2::date AND ps.status <> 'cancelled'),
			(SELECT COUNT(*) FROM orders WHERE tenant_id = $1 AND status IN ('pending','confirmed','ready')),
			(SELECT COALESCE(SUM(total_cents), 0) FROM orders
				WHERE tenant_id = $1 AND pickup_date = $2::date AND status <> 'cancelled')`,
		tenantID, day,
	).Scan(&s.ActiveLocations, &s.TeamMembers, &s.ActiveSuppliers, &s.TodaysBatches, &s.OpenOrders, &s.RevenueTodayCents)
	return s, err
}
