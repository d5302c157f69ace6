package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/bakeops/bakeops/internal/shared"
)

// Cache is the read-through tenant cache.
type Cache interface {
	FetchJSON(ctx context.Context, tenantID int64, dest any, loader func(context.Context) (any, error), parts ...string) error
}

// Service computes dashboard stats for the tenant in context.
type Service struct {
	repo   Repository
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the service.
func NewService(repo Repository, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// Stats returns the counters for the tenant's local today. Results are cached
// until a write bumps the tenant's cache version or the TTL lapses.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	tenantID := shared.TenantIDFromContext(ctx)
	currency, tz, err := s.repo.TenantSettings(ctx, tenantID)
	if err != nil {
		return Stats{}, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	day := s.now().In(loc).Format(time.DateOnly)

	load := func(ctx context.Context) (any, error) {
		started := time.Now()
		st, err := s.repo.Stats(ctx, tenantID, day)
		if err != nil {
			return nil, err
		}
		st.Currency = currency
		st.GeneratedAt = s.now().UTC()
		s.logger.Debug("dashboard stats computed",
			slog.Int64("tenant_id", tenantID),
			slog.Duration("took", time.Since(started)))
		return st, nil
	}

	var out Stats
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return Stats{}, err
		}
		return v.(Stats), nil
	}
	if err := s.cache.FetchJSON(ctx, tenantID, &out, load, "dashboard", "stats", day, currency); err != nil {
		return Stats{}, err
	}
	return out, nil
}
