package auth

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// RequestState is where a request ended up during authentication
type RequestState string

const (
	RequestNoHeader     RequestState = "no_header"
	RequestTokenPresent RequestState = "token_present"
	RequestResolved     RequestState = "resolved"
	RequestFailed       RequestState = "failed"
)

const DefaultAuthScheme = "Bearer"

// RequestAuthenticator resolves the bearer token of an inbound request into
// a SecurityContext before handing over to the next stage.
//
// A missing header, or one that does not use the bearer scheme, is let
// through as anonymous. A token that is present but does not verify ends
// the request: the context is cleared, the ErrorTranslator runs once and
// next is never called. A verified token whose subject no longer exists is
// treated as anonymous.
type RequestAuthenticator struct {
	codec     TokenCodec
	finder    PrincipalFinder
	translate ErrorTranslator
	prefix    string
	logger    Logger
	metrics   *Metrics
}

// NewRequestAuthenticator will create a new RequestAuthenticator. A nil
// translator returns the failure unchanged.
func NewRequestAuthenticator(codec TokenCodec, finder PrincipalFinder, translate ErrorTranslator) *RequestAuthenticator {
	if translate == nil {
		translate = func(_ context.Context, err error) error { return err }
	}
	return &RequestAuthenticator{
		codec:     codec,
		finder:    finder,
		translate: translate,
		prefix:    DefaultAuthScheme + " ",
		logger:    defLogger{},
	}
}

func (ra *RequestAuthenticator) WithLogger(l Logger) *RequestAuthenticator {
	if l != nil {
		ra.logger = l
	}
	return ra
}

func (ra *RequestAuthenticator) WithMetrics(m *Metrics) *RequestAuthenticator {
	ra.metrics = m
	return ra
}

// WithScheme changes the authorization scheme, "Bearer" by default.
func (ra *RequestAuthenticator) WithScheme(scheme string) *RequestAuthenticator {
	if scheme = strings.TrimSpace(scheme); scheme != "" {
		ra.prefix = scheme + " "
	}
	return ra
}

// Authenticate runs the request pipeline for one request. The context
// passed to next carries a fresh SecurityContext.
func (ra *RequestAuthenticator) Authenticate(ctx context.Context, authorization string, next func(context.Context) error) error {
	sc := NewSecurityContext()
	ctx = WithSecurityContext(ctx, sc)

	token, ok := ra.bearerToken(authorization)
	if !ok {
		sc.MarkAnonymous()
		ra.logger.Debug("request state=%s", RequestNoHeader)
		return next(ctx)
	}

	principal, err := ra.resolve(ctx, token)
	if err != nil {
		sc.Clear()
		ra.metrics.TokenVerificationFailed()
		ra.logger.Error("request state=%s: %v", RequestFailed, err)
		return ra.translate(ctx, err)
	}

	if principal == nil {
		sc.MarkAnonymous()
		ra.logger.Debug("request state=%s: principal not found", RequestTokenPresent)
		return next(ctx)
	}

	if err := sc.Authenticate(principal, token); err != nil {
		sc.Clear()
		return ra.translate(ctx, err)
	}

	ra.logger.Debug("request state=%s principal=%d", RequestResolved, principal.ID)
	return next(ctx)
}

func (ra *RequestAuthenticator) bearerToken(authorization string) (string, bool) {
	if !strings.HasPrefix(authorization, ra.prefix) {
		return "", false
	}
	return strings.TrimSpace(authorization[len(ra.prefix):]), true
}

func (ra *RequestAuthenticator) resolve(ctx context.Context, token string) (principal *Principal, err error) {
	defer func() {
		if r := recover(); r != nil {
			principal = nil
			err = goerrors.New(fmt.Sprintf("panic while resolving principal: %v", r), goerrors.CategoryInternal).
				WithCode(goerrors.CodeInternal)
		}
	}()

	id, err := ra.codec.VerifySubject(token)
	if err != nil {
		return nil, err
	}

	principal, err = ra.finder.FindPrincipalByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, internalError(err, "failed to load principal for token")
	}
	return principal, nil
}
