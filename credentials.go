package auth

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// CredentialAuthenticator verifies an identifier and secret pair against
// the principal store.
type CredentialAuthenticator struct {
	finder PrincipalFinder
	hasher SecretHasher
	logger Logger
}

// NewCredentialAuthenticator will create a new CredentialAuthenticator
func NewCredentialAuthenticator(finder PrincipalFinder, hasher SecretHasher) *CredentialAuthenticator {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &CredentialAuthenticator{
		finder: finder,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (c *CredentialAuthenticator) WithLogger(l Logger) *CredentialAuthenticator {
	if l != nil {
		c.logger = l
	}
	return c
}

// Authenticate returns the principal for identifier when secret matches.
// Unknown identifiers and wrong secrets both fail with ErrInvalidCredentials
// so callers cannot tell the two apart.
func (c *CredentialAuthenticator) Authenticate(ctx context.Context, identifier, secret string) (*Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, ErrInvalidCredentials
	}

	principal, err := c.finder.FindPrincipalByIdentifier(ctx, identifier)
	if err != nil {
		if IsNotFound(err) {
			c.logger.Debug("credential check for unknown identifier")
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve principal during verification").
			WithCode(goerrors.CodeInternal)
	}

	if principal == nil {
		return nil, ErrInvalidCredentials
	}

	if !c.hasher.VerifySecret(secret, principal.PasswordHash) {
		c.logger.Debug("credential check failed for principal %d", principal.ID)
		return nil, ErrInvalidCredentials
	}

	return principal, nil
}
