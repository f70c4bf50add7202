package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidToken       = "INVALID_TOKEN"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeAccountInactive    = "ACCOUNT_INACTIVE"
	TextCodeWeakPassword       = "WEAK_PASSWORD"
	TextCodeAccessDenied       = "ACCESS_DENIED"
	TextCodeNotFound           = "NOT_FOUND"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or
// carry a signature that does not verify. Callers never learn which.
var ErrInvalidToken = goerrors.New("Invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidCredentials is returned for both unknown identifiers and
// wrong secrets.
var ErrInvalidCredentials = goerrors.New("Invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

var ErrAccountInactive = goerrors.New("This user is currently inactive, Please change your password and try again.", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeUnauthorized)

var ErrWeakPassword = goerrors.New("Invalid new password format", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(goerrors.CodeBadRequest)

var ErrAccessDenied = goerrors.New("Access denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(goerrors.CodeForbidden)

var ErrNotFound = goerrors.New("User not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUnauthenticated is returned when an operation requires a resolved
// principal and the request has none.
var ErrUnauthenticated = goerrors.New("Authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryInternal)

// IsInvalidToken reports whether err is (or wraps) ErrInvalidToken
func IsInvalidToken(err error) bool { return hasTextCode(err, TextCodeInvalidToken) }

// IsInvalidCredentials reports whether err is (or wraps) ErrInvalidCredentials
func IsInvalidCredentials(err error) bool { return hasTextCode(err, TextCodeInvalidCredentials) }

func IsAccountInactive(err error) bool { return hasTextCode(err, TextCodeAccountInactive) }

func IsWeakPassword(err error) bool { return hasTextCode(err, TextCodeWeakPassword) }

func IsAccessDenied(err error) bool { return hasTextCode(err, TextCodeAccessDenied) }

func IsUnauthenticated(err error) bool { return hasTextCode(err, TextCodeUnauthenticated) }

// IsNotFound reports whether err signals a missing record, either through
// the NOT_FOUND text code or the not found category.
func IsNotFound(err error) bool {
	var rich *goerrors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeNotFound || rich.Category == goerrors.CategoryNotFound
}

func hasTextCode(err error, code string) bool {
	var rich *goerrors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == code
}

// withMetadata clones a sentinel so per-call metadata never leaks into
// the shared value.
func withMetadata(sentinel *goerrors.Error, meta map[string]any) *goerrors.Error {
	return sentinel.Clone().WithMetadata(meta)
}

// internalError wraps infrastructure failures.
func internalError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithCode(goerrors.CodeInternal)
}
