package tenants

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

// Repository persists tenants.
type Repository interface {
	CreateWithOwner(ctx context.Context, t Tenant, owner Owner) (Tenant, Owner, error)
	Get(ctx context.Context, id int64) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	Update(ctx context.Context, t Tenant) (Tenant, error)
}

type repository struct {
	db db.DB
}

// NewRepository returns the Postgres repository.
func NewRepository(pool db.DB) Repository {
	return &repository{db: pool}
}

const columns = `id, name, slug, currency, timezone, is_active, created_at, updated_at`

func scan(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Currency, &t.Timezone, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateWithOwner inserts the tenant, the owner user and the owner
// membership atomically.
func (r *repository) CreateWithOwner(ctx context.Context, t Tenant, owner Owner) (Tenant, Owner, error) {
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = $1)`,
			strings.ToLower(owner.Email)).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: email is already registered", shared.ErrConflict)
		}

		created, err := scan(tx.QueryRow(ctx, `
			INSERT INTO tenants (name, slug, currency, timezone)
			VALUES ($1, $2, $3, $4)
			RETURNING `+columns, t.Name, t.Slug, t.Currency, t.Timezone))
		if err != nil {
			return shared.MapPgError(err, "tenant slug")
		}
		t = created

		if err := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			owner.Email, owner.Name, owner.PasswordHash).Scan(&owner.ID); err != nil {
			return shared.MapPgError(err, "user email")
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO tenant_memberships (tenant_id, user_id, role) VALUES ($1, $2, $3)`,
			t.ID, owner.ID, string(rbac.RoleOwner))
		return shared.MapPgError(err, "membership")
	})
	if err != nil {
		return Tenant{}, Owner{}, err
	}
	return t, owner, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Tenant, error) {
	t, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM tenants WHERE id = $1`, id))
	return t, shared.MapPgError(err, "tenant")
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	t, err := scan(r.db.QueryRow(ctx, `SELECT `+columns+` FROM tenants WHERE slug = $1`, slug))
	return t, shared.MapPgError(err, "tenant")
}

func (r *repository) Update(ctx context.Context, t Tenant) (Tenant, error) {
	updated, err := scan(r.db.QueryRow(ctx, `
		UPDATE tenants SET name = $2, currency = $3, timezone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+columns, t.ID, t.Name, t.Currency, t.Timezone))
	return updated, shared.MapPgError(err, "tenant")
}
