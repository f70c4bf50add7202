package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenService signs and verifies HS256 bearer tokens
type TokenService struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
	logger     Logger
}

var _ TokenCodec = (*TokenService)(nil)

// TokenServiceOption customizes a TokenService
type TokenServiceOption func(*TokenService)

// WithTokenClock injects the clock used for iat/exp and for expiry checks.
func WithTokenClock(clock func() time.Time) TokenServiceOption {
	return func(ts *TokenService) {
		if clock != nil {
			ts.now = clock
		}
	}
}

func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenService) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, opts ...TokenServiceOption) *TokenService {
	ts := &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		now:        time.Now,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}
	return ts
}

// Issue creates a token for subjectID that expires ttlHours from now.
func (ts *TokenService) Issue(subjectID int64, ttlHours int) (string, error) {
	if ttlHours <= 0 {
		return "", goerrors.New("token ttl must be positive", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"ttl_hours": ttlHours})
	}

	now := ts.now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// VerifySubject checks signature and expiry and returns the subject id.
// Every failure, whatever the cause, is reported as ErrInvalidToken.
func (ts *TokenService) VerifySubject(tokenString string) (int64, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		ts.logger.Debug("TokenService verify failed: %v", err)
		return 0, ErrInvalidToken
	}

	id, err := claims.SubjectID()
	if err != nil {
		ts.logger.Debug("TokenService verify found non numeric subject %q", claims.Subject())
		return 0, ErrInvalidToken
	}

	return id, nil
}

// Validate is a boolean form of VerifySubject
func (ts *TokenService) Validate(tokenString string) bool {
	_, err := ts.VerifySubject(tokenString)
	return err == nil
}

// ExtractSignaturePart returns the third dot separated segment of a
// token, or false when the token does not have exactly three segments.
func (ts *TokenService) ExtractSignaturePart(tokenString string) (string, bool) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return "", false
	}
	return parts[2], true
}

func (ts *TokenService) parse(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrUnableToMapClaims
	}
	return claims, nil
}
