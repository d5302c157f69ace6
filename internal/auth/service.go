package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bakeops/bakeops/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions *shared.SessionManager
	cache    shared.CacheInvalidator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions *shared.SessionManager, cache shared.CacheInvalidator, logger *slog.Logger) *Service {
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, sessions: sessions, cache: cache, logger: logger, now: time.Now}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a bearer session in the user's first tenant.
func (s *Service) Login(ctx context.Context, req LoginRequest, ip, ua string) (*LoginResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	memberships, err := s.repo.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, shared.ErrInvalidCredentials
	}
	active := memberships[0]

	sess, err := s.sessions.Create(ctx, user.ID, active.TenantID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateSession(ctx, sess.ID, user.ID, sess.ExpiresAt, ip, ua); err != nil {
		s.logger.Warn("register session", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("touch last login", slog.Int64("user_id", user.ID), slog.Any("error", err))
	} else {
		user.LastLoginAt = &now
	}
	return &LoginResult{
		Token:     sess.ID,
		ExpiresAt: sess.ExpiresAt,
		User:      toView(user),
		Tenant:    active,
	}, nil
}

// Logout destroys the bearer session and its audit row.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Warn("remove session", slog.Any("error", err))
	}
	return nil
}

// Me returns the profile behind the principal.
func (s *Service) Me(ctx context.Context, p shared.Principal) (*Profile, error) {
	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthorized
	}
	memberships, err := s.repo.ListMemberships(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	current, ok := findMembership(memberships, p.TenantID)
	if !ok {
		return nil, shared.ErrForbidden
	}
	return &Profile{
		User:        toView(user),
		Tenant:      current,
		Role:        current.Role,
		Permissions: current.Role.Permissions(),
		Memberships: memberships,
	}, nil
}

// SwitchTenant moves the session to another tenant. Asking for the tenant
// that is already active is a no-op reported as changed=false.
func (s *Service) SwitchTenant(ctx context.Context, p shared.Principal, req SwitchTenantRequest) (SwitchTenantResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return SwitchTenantResult{}, err
	}
	if req.TenantID == p.TenantID {
		return SwitchTenantResult{Changed: false, TenantID: p.TenantID}, nil
	}
	memberships, err := s.repo.ListMemberships(ctx, p.UserID)
	if err != nil {
		return SwitchTenantResult{}, err
	}
	if _, ok := findMembership(memberships, req.TenantID); !ok {
		return SwitchTenantResult{}, shared.ErrForbidden
	}
	sess, err := s.sessions.Load(ctx, p.SessionID)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return SwitchTenantResult{}, shared.ErrUnauthorized
		}
		return SwitchTenantResult{}, err
	}
	if err := s.sessions.SwitchTenant(ctx, sess, req.TenantID); err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return SwitchTenantResult{}, shared.ErrUnauthorized
		}
		return SwitchTenantResult{}, err
	}
	if err := s.cache.Bump(ctx, req.TenantID); err != nil {
		s.logger.Warn("bump tenant cache", slog.Int64("tenant_id", req.TenantID), slog.Any("error", err))
	}
	return SwitchTenantResult{Changed: true, TenantID: req.TenantID}, nil
}

func findMembership(ms []Membership, tenantID int64) (Membership, bool) {
	for _, m := range ms {
		if m.TenantID == tenantID {
			return m, true
		}
	}
	return Membership{}, false
}
