package auth

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 64
)

// PasswordSymbols is the set of symbols a password must draw from
const PasswordSymbols = "!@#$%^&*()_+-"

var (
	lowerRx  = regexp.MustCompile(`[a-z]`)
	upperRx  = regexp.MustCompile(`[A-Z]`)
	digitRx  = regexp.MustCompile(`[0-9]`)
	symbolRx = regexp.MustCompile(`[!@#$%^&*()_+\-]`)
)

// PasswordRules are the strength rules applied to new passwords.
var PasswordRules = []validation.Rule{
	validation.Required,
	validation.Length(MinPasswordLength, MaxPasswordLength).Error("must be between 8 and 64 characters"),
	validation.Match(lowerRx).Error("must contain a lowercase letter"),
	validation.Match(upperRx).Error("must contain an uppercase letter"),
	validation.Match(digitRx).Error("must contain a digit"),
	validation.Match(symbolRx).Error("must contain one of " + PasswordSymbols),
}

// ValidatePasswordStrength returns ErrWeakPassword when secret does not
// satisfy PasswordRules. The failing rule is attached as metadata.
func ValidatePasswordStrength(secret string) error {
	if err := validation.Validate(secret, PasswordRules...); err != nil {
		return withMetadata(ErrWeakPassword, map[string]any{"reason": err.Error()})
	}
	return nil
}
