package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/bytebard/go-auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := newFakeClock()
	service := auth.NewTokenService(testSigningKey, "go-auth", auth.WithTokenClock(clock.Now))

	t.Run("round trips subject id", func(t *testing.T) {
		token, err := service.Issue(42, 1)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		id, err := service.VerifySubject(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.True(t, service.Validate(token))
	})

	t.Run("encodes registered claims", func(t *testing.T) {
		token, err := service.Issue(7, 2)
		require.NoError(t, err)

		claims := &auth.JWTClaims{}
		_, _, err = jwt.NewParser().ParseUnverified(token, claims)
		require.NoError(t, err)

		assert.Equal(t, "7", claims.Subject())
		assert.Equal(t, "go-auth", claims.Issuer)
		assert.Equal(t, clock.Now().Unix(), claims.IssuedAt().Unix())
		assert.Equal(t, clock.Now().Add(2*time.Hour).Unix(), claims.Expires().Unix())
	})

	t.Run("rejects non positive ttl", func(t *testing.T) {
		_, err := service.Issue(1, 0)
		assert.Error(t, err)
	})
}

func TestTokenService_Expiry(t *testing.T) {
	clock := newFakeClock()
	service := auth.NewTokenService(testSigningKey, "go-auth", auth.WithTokenClock(clock.Now))

	token, err := service.Issue(5, 1)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	assert.True(t, service.Validate(token))

	clock.Advance(2 * time.Minute)
	assert.False(t, service.Validate(token))

	_, err = service.VerifySubject(token)
	assert.True(t, auth.IsInvalidToken(err))
}

func TestTokenService_RejectsTampering(t *testing.T) {
	service := auth.NewTokenService(testSigningKey, "go-auth")

	token, err := service.Issue(9, 1)
	require.NoError(t, err)

	signature, ok := service.ExtractSignaturePart(token)
	require.True(t, ok)
	prefix := strings.TrimSuffix(token, signature)

	for i := range signature {
		replacement := byte('A')
		if signature[i] == 'A' {
			replacement = 'B'
		}
		tampered := []byte(signature)
		tampered[i] = replacement

		_, err := service.VerifySubject(prefix + string(tampered))
		assert.Truef(t, auth.IsInvalidToken(err), "flipped signature byte %d was accepted", i)
	}

	t.Run("wrong key", func(t *testing.T) {
		other := auth.NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), "go-auth")
		_, err := other.VerifySubject(token)
		assert.True(t, auth.IsInvalidToken(err))
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b", "a.b.c", token + ".extra"} {
			_, err := service.VerifySubject(raw)
			assert.Truef(t, auth.IsInvalidToken(err), "token %q", raw)
		}
	})

	t.Run("non numeric subject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
		require.NoError(t, err)

		_, err = service.VerifySubject(raw)
		assert.True(t, auth.IsInvalidToken(err))
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: "1"}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
		require.NoError(t, err)

		assert.False(t, service.Validate(raw))
	})
}

func TestTokenService_ExtractSignaturePart(t *testing.T) {
	service := auth.NewTokenService(testSigningKey, "go-auth")

	sig, ok := service.ExtractSignaturePart("aaa.bbb.ccc")
	assert.True(t, ok)
	assert.Equal(t, "ccc", sig)

	for _, raw := range []string{"", "aaa", "aaa.bbb", "a.b.c.d"} {
		_, ok := service.ExtractSignaturePart(raw)
		assert.Falsef(t, ok, "token %q", raw)
	}
}
