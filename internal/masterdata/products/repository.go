package products

import (
	"context"

	"github.com/jackc/pgx/v5"

	mdshared "github.com/bakeops/bakeops/internal/masterdata/shared"
	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

type Repository interface {
	List(ctx context.Context, tenantID int64, filters mdshared.ListFilters, extra ListFilters) ([]Product, int, error)
	Get(ctx context.Context, tenantID, id int64) (Product, error)
	GetMany(ctx context.Context, tenantID int64, ids []int64) (map[int64]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, tenantID, id int64) error
}

type repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Repository {
	return &repository{db: q}
}

const columns = `id, tenant_id, sku, name, description, category, price_cents, unit, is_active, is_public, created_at, updated_at`

var sortColumns = map[string]string{
	"sku":        "sku",
	"name":       "name",
	"category":   "category",
	"price":      "price_cents",
	"created_at": "created_at",
}

func scan(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.PriceCents,
		&p.Unit, &p.IsActive, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filters mdshared.ListFilters, extra ListFilters) ([]Product, int, error) {
	where := db.NewWhere("tenant_id = ?", tenantID)
	if filters.Search != "" {
		pattern := db.ContainsPattern(filters.Search)
		where.And(`(name ILIKE ? ESCAPE '\' OR sku ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filters.IsActive != nil {
		where.And("is_active = ?", *filters.IsActive)
	}
	if extra.Category != "" {
		where.And("category = ?", extra.Category)
	}
	if extra.IsPublic != nil {
		where.And("is_public = ?", *extra.IsPublic)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + columns + ` FROM products` + where.SQL() +
		` ORDER BY ` + filters.OrderBy(sortColumns, "name") +
		` LIMIT ` + where.Arg(filters.Limit) + ` OFFSET ` + where.Arg(filters.Offset())
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, id int64) (Product, error) {
	p, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	return p, shared.MapPgError(err, "product")
}

func (r *repository) GetMany(ctx context.Context, tenantID int64, ids []int64) (map[int64]Product, error) {
	out := make(map[int64]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM products WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	created, err := scan(r.db.QueryRow(ctx, `
		INSERT INTO products (tenant_id, sku, name, description, category, price_cents, unit, is_active, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+columns,
		p.TenantID, p.SKU, p.Name, p.Description, p.Category, p.PriceCents, p.Unit, p.IsActive, p.IsPublic))
	return created, shared.MapPgError(err, "product sku")
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	updated, err := scan(r.db.QueryRow(ctx, `
		UPDATE products SET sku = $3, name = $4, description = $5, category = $6, price_cents = $7,
			unit = $8, is_active = $9, is_public = $10, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+columns,
		p.TenantID, p.ID, p.SKU, p.Name, p.Description, p.Category, p.PriceCents, p.Unit, p.IsActive, p.IsPublic))
	if shared.IsUniqueViolation(err) {
		return Product{}, shared.MapPgError(err, "product sku")
	}
	return updated, shared.MapPgError(err, "product")
}

func (r *repository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return shared.MapPgError(err, "product")
	}
	if tag.RowsAffected() == 0 {
		return shared.MapPgError(pgx.ErrNoRows, "product")
	}
	return nil
}
