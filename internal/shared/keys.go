package shared

import "fmt"

// SessionKey builds the redis key holding a bearer session.
func SessionKey(id string) string {
	return fmt.Sprintf("bakeops:session:%s", id)
}

// TenantCacheVersionKey builds the redis key holding a tenant's cache version.
func TenantCacheVersionKey(tenantID int64) string {
	return fmt.Sprintf("bakeops:tenant:%d:cache_version", tenantID)
}
