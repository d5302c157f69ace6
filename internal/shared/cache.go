package shared

import "context"

// CacheInvalidator drops cached read models of a tenant after a write.
type CacheInvalidator interface {
	Bump(ctx context.Context, tenantID int64) error
}

// NopInvalidator ignores invalidations.
type NopInvalidator struct{}

// Bump implements CacheInvalidator.
func (NopInvalidator) Bump(context.Context, int64) error { return nil }
