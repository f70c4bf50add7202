package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	DefaultIssuer          = "go-auth"
	DefaultTokenExpiration = 24
	DefaultAdminPassword   = "defaultPassword"
	DefaultContextKey      = "security"
	MinSigningKeyLength    = 32
)

// Options is the plain Config implementation used by the binary.
type Options struct {
	SigningKey      string `json:"signing_key"`
	Issuer          string `json:"issuer"`
	TokenExpiration int    `json:"token_expiration"`
	DefaultPassword string `json:"default_password"`
	AuthScheme      string `json:"auth_scheme"`
	ContextKey      string `json:"context_key"`
}

var _ Config = Options{}

// DefaultOptions returns Options with every field but the signing key set.
func DefaultOptions() Options {
	return Options{
		Issuer:          DefaultIssuer,
		TokenExpiration: DefaultTokenExpiration,
		DefaultPassword: DefaultAdminPassword,
		AuthScheme:      DefaultAuthScheme,
		ContextKey:      DefaultContextKey,
	}
}

// Validate checks the options are usable for signing tokens.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.SigningKey, validation.Required, validation.Length(MinSigningKeyLength, 0)),
		validation.Field(&o.Issuer, validation.Required),
		validation.Field(&o.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&o.DefaultPassword, validation.Required),
	)
}

func (o Options) GetSigningKey() string   { return o.SigningKey }
func (o Options) GetIssuer() string       { return o.Issuer }
func (o Options) GetTokenExpiration() int { return o.TokenExpiration }

func (o Options) GetDefaultPassword() string {
	if o.DefaultPassword == "" {
		return DefaultAdminPassword
	}
	return o.DefaultPassword
}

func (o Options) GetAuthScheme() string {
	if o.AuthScheme == "" {
		return DefaultAuthScheme
	}
	return o.AuthScheme
}

func (o Options) GetContextKey() string {
	if o.ContextKey == "" {
		return DefaultContextKey
	}
	return o.ContextKey
}
