package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used outside race builds
const DefaultHashCost = 12

// ErrNoEmptyString is returned when hashing an empty secret
var ErrNoEmptyString = goerrors.New("secret must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a secret does not match its hash
var ErrMismatchedHashAndPassword = goerrors.New("secret does not match hash", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// BcryptHasher implements SecretHasher with bcrypt.
type BcryptHasher struct {
	// Cost is the bcrypt work factor. Zero selects the package default.
	Cost int
}

var _ SecretHasher = BcryptHasher{}

// HashSecret returns the bcrypt hash of raw
func (h BcryptHasher) HashSecret(raw string) (string, error) {
	if raw == "" {
		return "", ErrNoEmptyString
	}

	cost := h.Cost
	if cost == 0 {
		cost = passwordHashCost()
	}

	out, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash secret")
	}
	return string(out), nil
}

// VerifySecret reports whether raw matches hash
func (h BcryptHasher) VerifySecret(raw, hash string) bool {
	return ComparePasswordAndHash(raw, hash) == nil
}

// HashPassword will generate a password hash with the default cost
func HashPassword(password string) (string, error) {
	return BcryptHasher{}.HashSecret(password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
