package suppliers

import (
	"context"

	"github.com/jackc/pgx/v5"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

type Repository interface {
	List(ctx context.Context, tenantID int64, filters mdshared.ListFilters, extra ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, tenantID, id int64) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, supplier Supplier) (Supplier, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const columns = `id, tenant_id, name, contact_name, email, phone, address, delivery_days,
	minimum_order_cents, delivery_fee_cents, payment_terms_days, notes, is_active, created_at, updated_at`

var sortColumns = map[string]string{
	"name":               "name",
	"created_at":         "created_at",
	"minimum_order":      "minimum_order_cents",
	"payment_terms_days": "payment_terms_days",
}

func scan(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.ContactName, &s.Email, &s.Phone, &s.Address, &s.DeliveryDays,
		&s.MinimumOrderCents, &s.DeliveryFeeCents, &s.PaymentTermsDays, &s.Notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if s.DeliveryDays == nil {
		s.DeliveryDays = []string{}
	}
	return s, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filters mdshared.ListFilters, extra ListFilters) ([]Supplier, int, error) {
	where := db.NewWhere("tenant_id = ?", tenantID)
	if filters.Search != "" {
		pattern := db.ContainsPattern(filters.Search)
		where.And(`(name ILIKE ? ESCAPE '\' OR contact_name ILIKE ? ESCAPE '\' OR email ILIKE ? ESCAPE '\')`, pattern, pattern, pattern)
	}
	if filters.IsActive != nil {
		where.And("is_active = ?", *filters.IsActive)
	}
	if extra.DeliversOn != "" {
		where.And("? = ANY(delivery_days)", extra.DeliversOn)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM suppliers` + where.SQL() +
		` ORDER BY ` + filters.OrderBy(sortColumns, "name") +
		` LIMIT ` + where.Arg(filters.Limit) + ` OFFSET ` + where.Arg(filters.Offset())
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Supplier, error) {
	s, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM suppliers WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	return s, shared.MapPgError(err, "supplier")
}

func (r *repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	created, err := scan(r.db.QueryRow(ctx, `
		INSERT INTO suppliers (tenant_id, name, contact_name, email, phone, address, delivery_days,
			minimum_order_cents, delivery_fee_cents, payment_terms_days, notes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+columns,
		s.TenantID, s.Name, s.ContactName, s.Email, s.Phone, s.Address, s.DeliveryDays,
		s.MinimumOrderCents, s.DeliveryFeeCents, s.PaymentTermsDays, s.Notes, s.IsActive))
	return created, shared.MapPgError(err, "supplier")
}

func (r *repository) Update(ctx context.Context, s Supplier) (Supplier, error) {
	updated, err := scan(r.db.QueryRow(ctx, `
		UPDATE suppliers SET name = $3, contact_name = $4, email = $5, phone = $6, address = $7,
			delivery_days = $8, minimum_order_cents = $9, delivery_fee_cents = $10,
			payment_terms_days = $11, notes = $12, is_active = $13, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+columns,
		s.TenantID, s.ID, s.Name, s.ContactName, s.Email, s.Phone, s.Address, s.DeliveryDays,
		s.MinimumOrderCents, s.DeliveryFeeCents, s.PaymentTermsDays, s.Notes, s.IsActive))
	return updated, shared.MapPgError(err, "supplier")
}

func (r *repository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return shared.MapPgError(err, "supplier")
	}
	if tag.RowsAffected() == 0 {
		return shared.MapPgError(pgx.ErrNoRows, "supplier")
	}
	return nil
}
