package shared

import "context"

// Principal identifies the authenticated user and the tenant they act in.
type Principal struct {
	SessionID string
	UserID    int64
	TenantID  int64
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || p.UserID <= 0 {
		return Principal{}, false
	}
	return p, true
}

// TenantIDFromContext returns the active tenant or zero.
func TenantIDFromContext(ctx context.Context) int64 {
	p, _ := PrincipalFromContext(ctx)
	return p.TenantID
}
