package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// PrincipalFinder resolves principals from storage. Both lookups return
// an error matched by IsNotFound when no principal exists.
type PrincipalFinder interface {
	FindPrincipalByID(ctx context.Context, id int64) (*Principal, error)
	FindPrincipalByIdentifier(ctx context.Context, identifier string) (*Principal, error)
}

// PrincipalSaver persists changes to an existing principal.
type PrincipalSaver interface {
	SavePrincipal(ctx context.Context, principal *Principal) error
}

// PrincipalRepository is the store surface the orchestration layer needs.
type PrincipalRepository interface {
	PrincipalFinder
	PrincipalSaver
}

// PrincipalLister pages through principals.
type PrincipalLister interface {
	ListPrincipals(ctx context.Context, page Page) ([]*Principal, error)
	ListPrincipalsSharingDepartments(ctx context.Context, managerID int64, page Page) ([]*Principal, error)
}

// DepartmentMembership answers whether two principals have at least one
// department in common.
type DepartmentMembership interface {
	DepartmentsShared(ctx context.Context, a, b int64) (bool, error)
}

// AdminProvisioner is used to seed the default administrator.
type AdminProvisioner interface {
	ExistsByEmailAndRole(ctx context.Context, email string, role RoleName) (bool, error)
	CreatePrincipal(ctx context.Context, principal *Principal, role RoleName) (*Principal, error)
}

// SecretHasher hashes and verifies secrets
type SecretHasher interface {
	HashSecret(raw string) (string, error)
	VerifySecret(raw, hash string) bool
}

// TokenCodec issues and verifies signed bearer tokens.
type TokenCodec interface {
	Issue(subjectID int64, ttlHours int) (string, error)
	VerifySubject(token string) (int64, error)
	Validate(token string) bool
	ExtractSignaturePart(token string) (string, bool)
}

// ErrorTranslator turns a request authentication failure into a response.
// It is called at most once per request.
type ErrorTranslator func(ctx context.Context, err error) error

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetTokenExpiration() int
	GetDefaultPassword() string
	GetAuthScheme() string
	GetContextKey() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
