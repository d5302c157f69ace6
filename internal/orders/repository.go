package orders

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

// Repository persists orders scoped by tenant.
type Repository interface {
	List(ctx context.Context, tenantID int64, filters ListFilters) ([]Order, int, error)
	Get(ctx context.Context, tenantID, id int64) (Order, error)
	GetByReference(ctx context.Context, tenantID int64, reference string) (Order, error)
	Insert(ctx context.Context, o Order) (Order, error)
	// UpdateStatus moves the order to next only when it is currently in one
	// of from. ok is false when the order exists in another status.
	UpdateStatus(ctx context.Context, tenantID, id int64, from []Status, next Status) (ok bool, err error)
}

type repository struct {
	db db.DB
}

// NewRepository returns the Postgres repository.
func NewRepository(pool db.DB) Repository {
	return &repository{db: pool}
}

const orderSelect = `
	SELECT o.id, o.tenant_id, o.reference, o.customer_name, o.customer_email, o.customer_phone,
		o.pickup_location_id, l.name, to_char(o.pickup_date, 'YYYY-MM-DD'), o.status,
		o.total_cents, o.currency, o.notes, o.created_at, o.updated_at
	FROM orders o
	JOIN locations l ON l.id = o.pickup_location_id`

func scan(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.TenantID, &o.Reference, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.PickupLocationID, &o.PickupLocationName, &o.PickupDate, &o.Status,
		&o.TotalCents, &o.Currency, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filters ListFilters) ([]Order, int, error) {
	where := db.NewWhere("o.tenant_id = ?", tenantID)
	if filters.Status != "" {
		where.And("o.status = ?", string(filters.Status))
	}
	if filters.PickupDate != "" {
		where.And("o.pickup_date = ?::date", filters.PickupDate)
	}
	if filters.LocationID != nil {
		where.And("o.pickup_location_id = ?", *filters.LocationID)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := orderSelect + where.SQL() + ` ORDER BY o.pickup_date DESC, o.created_at DESC, o.id DESC` +
		` LIMIT ` + where.Arg(filters.Limit) + ` OFFSET ` + where.Arg(filters.Offset())
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Order, error) {
	return r.getWhere(ctx, ` WHERE o.tenant_id = $1 AND o.id = $2`, tenantID, id)
}

func (r *repository) GetByReference(ctx context.Context, tenantID int64, reference string) (Order, error) {
	return r.getWhere(ctx, ` WHERE o.tenant_id = $1 AND o.reference = $2`, tenantID, reference)
}

func (r *repository) getWhere(ctx context.Context, cond string, args ...any) (Order, error) {
	o, err := scan(r.db.QueryRow(ctx, orderSelect+cond, args...))
	if err != nil {
		return Order{}, shared.MapPgError(err, "order")
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price_cents, line_total_cents
		FROM order_lines WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	o.Lines = []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPriceCents, &l.LineTotalCents); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

func (r *repository) Insert(ctx context.Context, o Order) (Order, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (tenant_id, reference, customer_name, customer_email, customer_phone,
				pickup_location_id, pickup_date, status, total_cents, currency, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10, $11)
			RETURNING id, created_at, updated_at`,
			o.TenantID, o.Reference, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
			o.PickupLocationID, o.PickupDate, string(o.Status), o.TotalCents, o.Currency, o.Notes,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return shared.MapPgError(err, "order")
		}

		batch := &pgx.Batch{}
		for _, l := range o.Lines {
			batch.Queue(`
				INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price_cents, line_total_cents)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				o.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPriceCents, l.LineTotalCents)
		}
		br := tx.SendBatch(ctx, batch)
		for i := range o.Lines {
			if err := br.QueryRow().Scan(&o.Lines[i].ID); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert order line %d: %w", i, shared.MapPgError(err, "order line"))
			}
		}
		return br.Close()
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, tenantID, id int64, from []Status, next Status) (bool, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = ANY($4)`,
		tenantID, id, string(next), allowed)
	if err != nil {
		return false, shared.MapPgError(err, "order")
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE tenant_id = $1 AND id = $2)`, tenantID, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, shared.MapPgError(pgx.ErrNoRows, "order")
	}
	return false, nil
}
