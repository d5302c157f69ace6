package locations

import (
	"context"

	"github.com/jackc/pgx/v5"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

// Repository persists locations scoped by tenant.
type Repository interface {
	List(ctx context.Context, tenantID int64, filters mdshared.ListFilters) ([]Location, int, error)
	Get(ctx context.Context, tenantID, id int64) (Location, error)
	Create(ctx context.Context, loc Location) (Location, error)
	Update(ctx context.Context, loc Location) (Location, error)
	Delete(ctx context.Context, tenantID, id int64) error
	TenantTimezone(ctx context.Context, tenantID int64) (string, error)
}

type repository struct {
	db db.Querier
}

// NewRepository returns the Postgres repository.
func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const columns = `id, tenant_id, code, name, address_line1, address_line2, city, postal_code, country, phone, timezone, is_active, created_at, updated_at`

var sortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"city":       "city",
	"created_at": "created_at",
}

func scan(row pgx.Row) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.TenantID, &l.Code, &l.Name, &l.AddressLine1, &l.AddressLine2, &l.City,
		&l.PostalCode, &l.Country, &l.Phone, &l.Timezone, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filters mdshared.ListFilters) ([]Location, int, error) {
	where := db.NewWhere("tenant_id = ?", tenantID)
	if filters.Search != "" {
		pattern := db.ContainsPattern(filters.Search)
		where.And(`(name ILIKE ? ESCAPE '\' OR code ILIKE ? ESCAPE '\' OR city ILIKE ? ESCAPE '\')`, pattern, pattern, pattern)
	}
	if filters.IsActive != nil {
		where.And("is_active = ?", *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM locations`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + columns + ` FROM locations` + where.SQL() +
		` ORDER BY ` + filters.OrderBy(sortColumns, "name") +
		` LIMIT ` + where.Arg(filters.Limit) + ` OFFSET ` + where.Arg(filters.Offset())
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Location, error) {
	l, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM locations WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	return l, shared.MapPgError(err, "location")
}

func (r *repository) Create(ctx context.Context, l Location) (Location, error) {
	created, err := scan(r.db.QueryRow(ctx, `
		INSERT INTO locations (tenant_id, code, name, address_line1, address_line2, city, postal_code, country, phone, timezone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+columns,
		l.TenantID, l.Code, l.Name, l.AddressLine1, l.AddressLine2, l.City, l.PostalCode, l.Country, l.Phone, l.Timezone, l.IsActive))
	return created, shared.MapPgError(err, "location code")
}

func (r *repository) Update(ctx context.Context, l Location) (Location, error) {
	updated, err := scan(r.db.QueryRow(ctx, `
		UPDATE locations SET code = $3, name = $4, address_line1 = $5, address_line2 = $6, city = $7,
			postal_code = $8, country = $9, phone = $10, timezone = $11, is_active = $12, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+columns,
		l.TenantID, l.ID, l.Code, l.Name, l.AddressLine1, l.AddressLine2, l.City, l.PostalCode, l.Country, l.Phone, l.Timezone, l.IsActive))
	if shared.IsUniqueViolation(err) {
		return Location{}, shared.MapPgError(err, "location code")
	}
	return updated, shared.MapPgError(err, "location")
}

func (r *repository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return shared.MapPgError(err, "location")
	}
	if tag.RowsAffected() == 0 {
		return shared.MapPgError(pgx.ErrNoRows, "location")
	}
	return nil
}

func (r *repository) TenantTimezone(ctx context.Context, tenantID int64) (string, error) {
	var tz string
	err := r.db.QueryRow(ctx, `SELECT timezone FROM tenants WHERE id = $1`, tenantID).Scan(&tz)
	return tz, shared.MapPgError(err, "tenant")
}
