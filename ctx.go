package auth

import (
	"context"
)

var securityCtxKey = &contextKey{"security"}

type contextKey struct {
	name string
}

// WithSecurityContext sets the SecurityContext in the given context
func WithSecurityContext(ctx context.Context, sc *SecurityContext) context.Context {
	return context.WithValue(ctx, securityCtxKey, sc)
}

// SecurityContextFrom finds the SecurityContext in the context.
func SecurityContextFrom(ctx context.Context) (*SecurityContext, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(securityCtxKey).(*SecurityContext)
	return raw, ok && raw != nil
}

// CurrentPrincipal returns the authenticated principal, if any.
func CurrentPrincipal(ctx context.Context) (*Principal, bool) {
	sc, ok := SecurityContextFrom(ctx)
	if !ok || !sc.IsAuthenticated() {
		return nil, false
	}
	p := sc.Principal()
	return p, p != nil
}
