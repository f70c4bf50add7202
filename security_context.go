package auth

import (
	"slices"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// ErrSecurityContextResolved is returned when a request tries to set the
// authenticated principal a second time.
var ErrSecurityContextResolved = goerrors.New("security context already resolved", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict)

// SecurityContext is the per request record of who is acting. It starts
// empty, is either authenticated or marked anonymous once, and can be
// cleared on failure. A new value is created for every request.
type SecurityContext struct {
	mu            sync.RWMutex
	principal     *Principal
	token         string
	authorities   []string
	authenticated bool
	resolved      bool
}

// NewSecurityContext returns an empty, anonymous context
func NewSecurityContext() *SecurityContext {
	return &SecurityContext{}
}

// NewAuthenticatedContext returns a context already holding principal.
func NewAuthenticatedContext(principal *Principal, token string) *SecurityContext {
	sc := &SecurityContext{}
	_ = sc.Authenticate(principal, token)
	return sc
}

// Authenticate records the resolved principal and its authorities. It can
// only succeed once per context.
func (sc *SecurityContext) Authenticate(principal *Principal, token string) error {
	if principal == nil {
		return goerrors.New("principal must not be nil", goerrors.CategoryBadInput)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.resolved {
		return ErrSecurityContextResolved
	}

	sc.principal = principal
	sc.token = token
	sc.authorities = principal.Authorities()
	sc.authenticated = true
	sc.resolved = true
	return nil
}

// MarkAnonymous resolves the context without a principal.
func (sc *SecurityContext) MarkAnonymous() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.principal = nil
	sc.token = ""
	sc.authorities = nil
	sc.authenticated = false
	sc.resolved = true
}

// Clear drops any principal, returning the context to anonymous.
func (sc *SecurityContext) Clear() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.principal = nil
	sc.token = ""
	sc.authorities = nil
	sc.authenticated = false
}

func (sc *SecurityContext) Principal() *Principal {
	if sc == nil {
		return nil
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.principal
}

func (sc *SecurityContext) Token() string {
	if sc == nil {
		return ""
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.token
}

// Authorities returns a copy of the granted authorities
func (sc *SecurityContext) Authorities() []string {
	if sc == nil {
		return nil
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return slices.Clone(sc.authorities)
}

func (sc *SecurityContext) IsAuthenticated() bool {
	if sc == nil {
		return false
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.authenticated
}

// HasAuthority checks for an exact authority, e.g. ROLE_ADMIN
func (sc *SecurityContext) HasAuthority(authority string) bool {
	if sc == nil {
		return false
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return slices.Contains(sc.authorities, authority)
}
