package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// WithPrincipal sets the authenticated Principal in the given context
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, principal)
}

// PrincipalFromContext finds the principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok
}

// RequirePrincipal is the strict form handlers use on protected routes: a
// missing principal is the 401 signal, not a server fault.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok || principal == nil || principal.Email == "" {
		return nil, ErrMissingPrincipal
	}
	return principal, nil
}

// GetRouterPrincipal extracts the Principal from the router context locals.
func GetRouterPrincipal(c router.Context, key string) (*Principal, bool) {
	if key == "" {
		key = "principal"
	}
	raw := c.Locals(key)
	if raw == nil {
		return nil, false
	}
	principal, ok := raw.(*Principal)
	return principal, ok
}
