package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bakeops/bakeops/internal/auth"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

// Service manages the members of the tenant in context.
type Service struct {
	repo   Repository
	audit  shared.AuditRecorder
	cache  shared.CacheInvalidator
	mail   shared.MailQueue
	logger *slog.Logger
	hash   func(string) (string, error)
}

// NewService builds Service instance.
func NewService(repo Repository, audit shared.AuditRecorder, cache shared.CacheInvalidator, mail shared.MailQueue, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAudit{}
	}
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	if mail == nil {
		mail = shared.NopMailQueue{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, mail: mail, logger: logger, hash: auth.HashPassword}
}

// List returns one page of members.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Member], error) {
	items, total, err := s.repo.List(ctx, shared.TenantIDFromContext(ctx), filters)
	if err != nil {
		return shared.Page[Member]{}, err
	}
	return shared.NewPage(items, filters.PageRequest, total), nil
}

// Get fetches one member.
func (s *Service) Get(ctx context.Context, userID int64) (Member, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx), userID)
}

// Create adds a member, creating the account when the email is unknown, and
// queues a welcome mail.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (Member, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := shared.ValidateStruct(req); err != nil {
		return Member{}, err
	}
	role := rbac.Role(req.Role)
	if err := s.authorizeRole(ctx, role); err != nil {
		return Member{}, err
	}
	tenantID := shared.TenantIDFromContext(ctx)
	if err := s.checkLocation(ctx, tenantID, req.LocationID); err != nil {
		return Member{}, err
	}

	hash, err := s.hash(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return Member{}, shared.NewValidationError("password", "must be at most 72 bytes")
	}
	if err != nil {
		return Member{}, fmt.Errorf("hash password: %w", err)
	}
	m, created, err := s.repo.Create(ctx, NewMember{
		TenantID:     tenantID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		LocationID:   req.LocationID,
	})
	if err != nil {
		return Member{}, err
	}

	s.record(ctx, "user.created", m.UserID, map[string]any{"role": string(role), "new_account": created})
	if err := s.mail.EnqueueMail(ctx, shared.Mail{
		To:       m.Email,
		Template: shared.MailTemplateWelcome,
		Data:     map[string]any{"Name": m.Name, "Role": string(m.Role), "NewAccount": created},
	}); err != nil {
		s.logger.Warn("enqueue welcome mail", slog.Int64("user_id", m.UserID), slog.Any("error", err))
	}
	return m, nil
}

// UpdateMembership changes role, location or activity of a member.
func (s *Service) UpdateMembership(ctx context.Context, userID int64, req UpdateMembershipRequest) (Member, error) {
	if req.Role != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Role))
		req.Role = &v
	}
	if err := shared.ValidateStruct(req); err != nil {
		return Member{}, err
	}
	tenantID := shared.TenantIDFromContext(ctx)
	current, err := s.repo.Get(ctx, tenantID, userID)
	if err != nil {
		return Member{}, err
	}

	next := current
	if req.Role != nil {
		next.Role = rbac.Role(*req.Role)
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}
	if req.LocationID != nil {
		if *req.LocationID == 0 {
			next.LocationID = nil
		} else {
			if err := s.checkLocation(ctx, tenantID, req.LocationID); err != nil {
				return Member{}, err
			}
			next.LocationID = req.LocationID
		}
	}
	if current.Role == rbac.RoleOwner || next.Role == rbac.RoleOwner {
		if err := s.authorizeRole(ctx, rbac.RoleOwner); err != nil {
			return Member{}, err
		}
	}

	updated, err := s.repo.UpdateMembership(ctx, next)
	if err != nil {
		return Member{}, err
	}
	meta := map[string]any{}
	if current.Role != updated.Role {
		meta["role"] = map[string]string{"from": string(current.Role), "to": string(updated.Role)}
	}
	if current.IsActive != updated.IsActive {
		meta["is_active"] = updated.IsActive
	}
	s.record(ctx, "user.membership_updated", userID, meta)
	return updated, nil
}

func (s *Service) authorizeRole(ctx context.Context, target rbac.Role) error {
	actor, ok := rbac.RoleFromContext(ctx)
	if !ok || !actor.CanAssign(target) {
		return fmt.Errorf("%w: cannot assign role %s", shared.ErrForbidden, target)
	}
	return nil
}

func (s *Service) checkLocation(ctx context.Context, tenantID int64, locationID *int64) error {
	if locationID == nil {
		return nil
	}
	active, err := s.repo.LocationActive(ctx, tenantID, *locationID)
	if err != nil {
		return err
	}
	if !active {
		return shared.NewValidationError("location_id", "must be an active location")
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, userID int64, meta map[string]any) {
	if err := s.audit.Record(ctx, shared.AuditEntry(ctx, action, "user", userID, meta)); err != nil {
		s.logger.Warn("audit user", slog.String("action", action), slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, shared.TenantIDFromContext(ctx)); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
}
