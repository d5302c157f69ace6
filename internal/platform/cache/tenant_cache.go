package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/bakeops/bakeops/internal/shared"
)

// loadTimeout bounds a shared loader call once detached from its caller.
const loadTimeout = 30 * time.Second

// TenantCache is a Redis JSON cache whose keys embed a per-tenant version.
// Bumping the version orphans every entry of that tenant at once.
type TenantCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewTenantCache builds the cache. A nil client disables caching.
func NewTenantCache(client *redis.Client, ttl time.Duration) *TenantCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TenantCache{client: client, ttl: ttl}
}

// Version returns the tenant's current cache version, initialising it to 1.
func (c *TenantCache) Version(ctx context.Context, tenantID int64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := shared.TenantCacheVersionKey(tenantID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Bump invalidates all cached entries for the tenant.
func (c *TenantCache) Bump(ctx context.Context, tenantID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, shared.TenantCacheVersionKey(tenantID)).Err()
}

// FetchJSON returns the cached value for (tenant, parts) or fills it with
// loader. Concurrent misses for the same key share one loader call.
func (c *TenantCache) FetchJSON(ctx context.Context, tenantID int64, dest any, loader func(context.Context) (any, error), parts ...string) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return roundTrip(value, dest)
	}
	ver, err := c.Version(ctx, tenantID)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("bakeops:tenant:%d:%s:v%d", tenantID, strings.Join(parts, ":"), ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// The shared load outlives whichever caller started it.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		value, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(loadCtx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
