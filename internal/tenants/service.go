package tenants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bakeops/bakeops/internal/auth"
	"github.com/bakeops/bakeops/internal/shared"
)

// MembershipLister lists the tenants a user may switch to.
type MembershipLister interface {
	ListMemberships(ctx context.Context, userID int64) ([]auth.Membership, error)
}

// Service implements tenant use cases.
type Service struct {
	repo    Repository
	members MembershipLister
	audit   shared.AuditRecorder
	cache   shared.CacheInvalidator
	mail    shared.MailQueue
	logger  *slog.Logger
	hash    func(string) (string, error)
}

// NewService wires the service. Nil collaborators fall back to no-ops.
func NewService(repo Repository, members MembershipLister, audit shared.AuditRecorder, cache shared.CacheInvalidator, mail shared.MailQueue, logger *slog.Logger) *Service {
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
	return &Service{
		repo:    repo,
		members: members,
		audit:   audit,
		cache:   cache,
		mail:    mail,
		logger:  logger,
		hash:    auth.HashPassword,
	}
}

// Signup creates a tenant with its owner account. The owner email must not
// belong to an existing user.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	req.TenantName = strings.TrimSpace(req.TenantName)
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.Timezone = strings.TrimSpace(req.Timezone)
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	req.OwnerEmail = strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if err := shared.ValidateStruct(req); err != nil {
		return SignupResult{}, err
	}

	hash, err := s.hash(req.OwnerPassword)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return SignupResult{}, shared.NewValidationError("owner_password", "must be at most 72 bytes")
	}
	if err != nil {
		return SignupResult{}, fmt.Errorf("hash owner password: %w", err)
	}
	tenant, owner, err := s.repo.CreateWithOwner(ctx,
		Tenant{Name: req.TenantName, Slug: req.Slug, Currency: req.Currency, Timezone: req.Timezone},
		Owner{Email: req.OwnerEmail, Name: req.OwnerName, PasswordHash: hash},
	)
	if err != nil {
		return SignupResult{}, err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		TenantID: tenant.ID,
		ActorID:  owner.ID,
		Action:   "tenant.created",
		Entity:   "tenant",
		EntityID: fmt.Sprint(tenant.ID),
		Meta:     map[string]any{"slug": tenant.Slug},
	}); err != nil {
		s.logger.Warn("audit tenant signup", slog.Any("error", err))
	}
	if err := s.mail.EnqueueMail(ctx, shared.Mail{
		To:       owner.Email,
		Template: shared.MailTemplateTenantCreated,
		Data: map[string]any{
			"Name":       owner.Name,
			"TenantName": tenant.Name,
			"Slug":       tenant.Slug,
		},
	}); err != nil {
		s.logger.Warn("enqueue tenant mail", slog.Int64("tenant_id", tenant.ID), slog.Any("error", err))
	}
	s.logger.Info("tenant created", slog.Int64("tenant_id", tenant.ID), slog.String("slug", tenant.Slug))
	return SignupResult{Tenant: tenant, Owner: owner}, nil
}

// Current returns the tenant in context.
func (s *Service) Current(ctx context.Context) (Tenant, error) {
	return s.repo.Get(ctx, shared.TenantIDFromContext(ctx))
}

// UpdateCurrent edits name, currency and timezone of the tenant in context.
func (s *Service) UpdateCurrent(ctx context.Context, req UpdateTenantRequest) (Tenant, error) {
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		req.Name = &v
	}
	if req.Currency != nil {
		v := strings.ToUpper(strings.TrimSpace(*req.Currency))
		req.Currency = &v
	}
	if req.Timezone != nil {
		v := strings.TrimSpace(*req.Timezone)
		req.Timezone = &v
	}
	if err := shared.ValidateStruct(req); err != nil {
		return Tenant{}, err
	}

	t, err := s.repo.Get(ctx, shared.TenantIDFromContext(ctx))
	if err != nil {
		return Tenant{}, err
	}
	meta := map[string]any{}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.Currency != nil && *req.Currency != t.Currency {
		meta["currency"] = map[string]string{"from": t.Currency, "to": *req.Currency}
		t.Currency = *req.Currency
	}
	if req.Timezone != nil && *req.Timezone != t.Timezone {
		meta["timezone"] = map[string]string{"from": t.Timezone, "to": *req.Timezone}
		t.Timezone = *req.Timezone
	}
	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return Tenant{}, err
	}

	entry := shared.AuditEntry(ctx, "tenant.updated", "tenant", updated.ID, meta)
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit tenant update", slog.Any("error", err))
	}
	if err := s.cache.Bump(ctx, updated.ID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Any("error", err))
	}
	return updated, nil
}

// Mine lists the active memberships of the signed-in user.
func (s *Service) Mine(ctx context.Context) ([]auth.Membership, error) {
	p, ok := shared.PrincipalFromContext(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	items, err := s.members.ListMemberships(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []auth.Membership{}
	}
	return items, nil
}

// ResolveSlug returns the active tenant behind a storefront slug.
func (s *Service) ResolveSlug(ctx context.Context, slug string) (Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return Tenant{}, fmt.Errorf("tenant %w", shared.ErrNotFound)
	}
	t, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Tenant{}, err
	}
	if !t.IsActive {
		return Tenant{}, fmt.Errorf("tenant %w", shared.ErrNotFound)
	}
	return t, nil
}
