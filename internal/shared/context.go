package shared

import "context"

// Principal identifies the authenticated actor and its tenant. The gateway in
// front of this service authenticates requests; repositories still scope every
// query by CompanyID.
type Principal struct {
	UserID    int64
	CompanyID int64
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
