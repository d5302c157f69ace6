package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bakeops/bakeops/internal/platform/db"
	"github.com/bakeops/bakeops/internal/shared"
)

// Repository persists tenant members.
type Repository interface {
	List(ctx context.Context, tenantID int64, filters ListFilters) ([]Member, int, error)
	Get(ctx context.Context, tenantID, userID int64) (Member, error)
	// Create adds a membership, creating the user account when the email is
	// new. created reports whether an account was inserted.
	Create(ctx context.Context, nm NewMember) (m Member, created bool, err error)
	// UpdateMembership stores next unless it removes the last active owner.
	UpdateMembership(ctx context.Context, next Member) (Member, error)
	LocationActive(ctx context.Context, tenantID, locationID int64) (bool, error)
}

type repository struct {
	db db.DB
}

// NewRepository returns the Postgres repository.
func NewRepository(pool db.DB) Repository {
	return &repository{db: pool}
}

const memberSelect = `
	SELECT u.id, m.tenant_id, u.email, u.name, m.role, m.location_id, m.is_active,
		u.last_login_at, m.created_at, m.updated_at
	FROM tenant_memberships m
	JOIN users u ON u.id = m.user_id`

var sortColumns = map[string]string{
	"name":       "u.name",
	"email":      "u.email",
	"role":       "m.role",
	"joined_at":  "m.created_at",
	"last_login": "u.last_login_at",
}

func scan(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.UserID, &m.TenantID, &m.Email, &m.Name, &m.Role, &m.LocationID, &m.IsActive,
		&m.LastLoginAt, &m.JoinedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) List(ctx context.Context, tenantID int64, filters ListFilters) ([]Member, int, error) {
	where := db.NewWhere("m.tenant_id = ?", tenantID)
	if filters.Search != "" {
		pattern := db.ContainsPattern(filters.Search)
		where.And(`(u.name ILIKE ? ESCAPE '\' OR u.email ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filters.IsActive != nil {
		where.And("m.is_active = ?", *filters.IsActive)
	}
	if filters.Role != "" {
		where.And("m.role = ?", string(filters.Role))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tenant_memberships m JOIN users u ON u.id = m.user_id`+where.SQL(),
		where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// OrderBy appends "id DIR" as tiebreaker; u.id is the only id in scope.
	order := strings.Replace(filters.OrderBy(sortColumns, "u.name"), ", id ", ", u.id ", 1)
	query := memberSelect + where.SQL() + ` ORDER BY ` + order +
		` LIMIT ` + where.Arg(filters.Limit) + ` OFFSET ` + where.Arg(filters.Offset())
	rows, err := r.db.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, tenantID, userID int64) (Member, error) {
	return get(ctx, r.db, tenantID, userID)
}

func get(ctx context.Context, q db.Querier, tenantID, userID int64) (Member, error) {
	m, err := scan(q.QueryRow(ctx, memberSelect+` WHERE m.tenant_id = $1 AND m.user_id = $2`, tenantID, userID))
	return m, shared.MapPgError(err, "user")
}

func (r *repository) Create(ctx context.Context, nm NewMember) (Member, bool, error) {
	var (
		out     Member
		created bool
	)
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var userID int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE LOWER(email) = $1`, strings.ToLower(nm.Email)).Scan(&userID)
		switch {
		case err == nil:
			var member bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenant_memberships WHERE tenant_id = $1 AND user_id = $2)`,
				nm.TenantID, userID).Scan(&member); err != nil {
				return err
			}
			if member {
				return fmt.Errorf("%w: user is already a member of this tenant", shared.ErrConflict)
			}
		case errors.Is(err, pgx.ErrNoRows):
			if err := tx.QueryRow(ctx, `INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3) RETURNING id`,
				nm.Email, nm.Name, nm.PasswordHash).Scan(&userID); err != nil {
				return shared.MapPgError(err, "user email")
			}
			created = true
		default:
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tenant_memberships (tenant_id, user_id, role, location_id) VALUES ($1, $2, $3, $4)`,
			nm.TenantID, userID, string(nm.Role), nm.LocationID); err != nil {
			return shared.MapPgError(err, "membership")
		}
		out, err = get(ctx, tx, nm.TenantID, userID)
		return err
	})
	if err != nil {
		return Member{}, false, err
	}
	return out, created, nil
}

func (r *repository) UpdateMembership(ctx context.Context, next Member) (Member, error) {
	var out Member
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Lock the tenant's owner rows so concurrent demotions serialise.
		rows, err := tx.Query(ctx, `
			SELECT user_id FROM tenant_memberships
			WHERE tenant_id = $1 AND role = 'owner' AND is_active
			FOR UPDATE`, next.TenantID)
		if err != nil {
			return err
		}
		owners := 0
		for rows.Next() {
			owners++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		current, err := get(ctx, tx, next.TenantID, next.UserID)
		if err != nil {
			return err
		}
		if removesLastOwner(current, next, owners) {
			return ErrLastOwner
		}

		tag, err := tx.Exec(ctx, `
			UPDATE tenant_memberships SET role = $3, location_id = $4, is_active = $5, updated_at = NOW()
			WHERE tenant_id = $1 AND user_id = $2`,
			next.TenantID, next.UserID, string(next.Role), next.LocationID, next.IsActive)
		if err != nil {
			return shared.MapPgError(err, "membership")
		}
		if tag.RowsAffected() == 0 {
			return shared.MapPgError(pgx.ErrNoRows, "user")
		}
		out, err = get(ctx, tx, next.TenantID, next.UserID)
		return err
	})
	return out, err
}

func (r *repository) LocationActive(ctx context.Context, tenantID, locationID int64) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx, `SELECT is_active FROM locations WHERE tenant_id = $1 AND id = $2`, tenantID, locationID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return active, err
}
