package production

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

// Repository persists production schedules scoped by tenant.
type Repository interface {
	List(ctx context.Context, tenantID int64, filters ListFilters) ([]Schedule, int, error)
	Get(ctx context.Context, tenantID, id int64) (Schedule, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	// CompletePublishedBefore completes published schedules dated before
	// their location's local today. It returns the number of schedules
	// completed and the distinct tenants they belong to.
	CompletePublishedBefore(ctx context.Context, now time.Time) (int64, []int64, error)
}

// TxRepository exposes the writes that run inside one transaction.
type TxRepository interface {
	Lock(ctx context.Context, tenantID, id int64) (Schedule, error)
	Insert(ctx context.Context, s Schedule) (int64, error)
	InsertItems(ctx context.Context, scheduleID int64, items []ItemInput) error
	DeleteItems(ctx context.Context, scheduleID int64) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DB
}

// NewRepository returns the Postgres repository.
func NewRepository(pool db.DB) Repository {
	return &repository{db: pool}
}

const scheduleSelect = `
	SELECT s.id, s.tenant_id, s.location_id, l.name, to_char(s.production_date, 'YYYY-MM-DD'),
		s.status, s.notes, s.created_by,
		COALESCE(agg.item_count, 0), COALESCE(agg.total_quantity, 0),
		s.created_at, s.updated_at
	FROM production_schedules s
	JOIN locations l ON l.id = s.location_id
	LEFT JOIN LATERAL (
		SELECT COUNT(*) AS item_count, SUM(i.quantity) AS total_quantity
		FROM production_schedule_items i WHERE i.schedule_id = s.id
	) agg ON TRUE`

func scan(row pgx.Row) (Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.TenantID, &s.LocationID, &s.LocationName, &s.ProductionDate,
		&s.Status, &s.Notes, &s.CreatedBy, &s.ItemCount, &s.TotalQuantity, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filters ListFilters) ([]Schedule, int, error) {
	where := db.NewWhere("s.tenant_id = ?", tenantID)
	if filters.LocationID != nil {
		where.And("s.location_id = ?", *filters.LocationID)
	}
	if filters.Status != "" {
		where.And("s.status = ?", string(filters.Status))
	}
	if filters.From != "" {
		where.And("s.production_date >= ?::date", filters.From)
	}
	if filters.To != "" {
		where.And("s.production_date <= ?::date", filters.To)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM production_schedules s`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := scheduleSelect + where.SQL() + ` ORDER BY s.production_date DESC, l.name, s.id` +
		` LIMIT ` + where.Arg(filters.Limit) + ` OFFSET ` + where.Arg(filters.Offset())
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Schedule
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Schedule, error) {
	s, err := scan(r.db.QueryRow(ctx, scheduleSelect+` WHERE s.tenant_id = $1 AND s.id = $2`, tenantID, id))
	if err != nil {
		return Schedule{}, shared.MapPgError(err, "production schedule")
	}

	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.product_id, p.sku, p.name, i.quantity, i.start_time, i.notes
		FROM production_schedule_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.schedule_id = $1
		ORDER BY NULLIF(i.start_time, '') NULLS LAST, p.name`, id)
	if err != nil {
		return Schedule{}, err
	}
	defer rows.Close()
	s.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductSKU, &it.ProductName, &it.Quantity, &it.StartTime, &it.Notes); err != nil {
			return Schedule{}, err
		}
		s.Items = append(s.Items, it)
	}
	return s, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *repository) CompletePublishedBefore(ctx context.Context, now time.Time) (int64, []int64, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE production_schedules s
		SET status = 'completed', updated_at = NOW()
		FROM locations l
		WHERE l.id = s.location_id
			AND s.status = 'published'
			AND s.production_date < ($1::timestamptz AT TIME ZONE l.timezone)::date
		RETURNING s.tenant_id`, now)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()
	var completed int64
	seen := map[int64]bool{}
	var tenants []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, nil, err
		}
		completed++
		if !seen[id] {
			seen[id] = true
			tenants = append(tenants, id)
		}
	}
	return completed, tenants, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) Lock(ctx context.Context, tenantID, id int64) (Schedule, error) {
	var s Schedule
	err := t.tx.QueryRow(ctx, `
		SELECT id, tenant_id, location_id, to_char(production_date, 'YYYY-MM-DD'), status, notes
		FROM production_schedules WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`, tenantID, id).
		Scan(&s.ID, &s.TenantID, &s.LocationID, &s.ProductionDate, &s.Status, &s.Notes)
	return s, shared.MapPgError(err, "production schedule")
}

func (t *txRepo) Insert(ctx context.Context, s Schedule) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO production_schedules (tenant_id, location_id, production_date, status, notes, created_by)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		RETURNING id`,
		s.TenantID, s.LocationID, s.ProductionDate, string(s.Status), s.Notes, s.CreatedBy).Scan(&id)
	return id, shared.MapPgError(err, "production schedule for this location and date")
}

func (t *txRepo) InsertItems(ctx context.Context, scheduleID int64, items []ItemInput) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO production_schedule_items (schedule_id, product_id, quantity, start_time, notes)
			VALUES ($1, $2, $3, $4, $5)`, scheduleID, it.ProductID, it.Quantity, it.StartTime, it.Notes)
	}
	br := t.tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert item %d: %w", i, shared.MapPgError(err, "schedule item"))
		}
	}
	return br.Close()
}

func (t *txRepo) DeleteItems(ctx context.Context, scheduleID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM production_schedule_items WHERE schedule_id = $1`, scheduleID)
	return err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := t.tx.Exec(ctx, `UPDATE production_schedules SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	return shared.MapPgError(err, "production schedule")
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM production_schedules WHERE id = $1`, id)
	return shared.MapPgError(err, "production schedule")
}
