package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(clock *fakeClock) *Codec {
	return NewCodec(testSecret, "nutricionista", time.Hour, 7*24*time.Hour, WithClock(clock.Now))
}

func TestCodec_IssueAccess_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: epoch}
	c := newTestCodec(clock)

	token, err := c.IssueAccess("a@x.com", "user-1", []string{"ROLE_USER", "ROLE_ADMIN"})
	require.NoError(t, err)

	claims, err := c.DecodeAndVerify(token)
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, claims.Roles)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "nutricionista", claims.Issuer)
	assert.Equal(t, epoch, claims.IssuedAt.Time.UTC())
	assert.Equal(t, epoch.Add(time.Hour), claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestCodec_IssueRefresh_HasNoRoles(t *testing.T) {
	c := newTestCodec(&fakeClock{t: epoch})

	token, err := c.IssueRefresh("a@x.com", "user-1")
	require.NoError(t, err)

	claims, err := c.DecodeAndVerify(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
	assert.Empty(t, claims.Roles)
	assert.Equal(t, epoch.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestCodec_TokensIssuedInSameSecondDiffer(t *testing.T) {
	c := newTestCodec(&fakeClock{t: epoch})

	a, err := c.IssueAccess("a@x.com", "user-1", nil)
	require.NoError(t, err)
	b, err := c.IssueAccess("a@x.com", "user-1", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCodec_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{"just before expiry", time.Hour - time.Second, nil},
		{"at expiry", time.Hour, ErrTokenExpired},
		{"after expiry", 2 * time.Hour, ErrTokenExpired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := &fakeClock{t: epoch}
			c := newTestCodec(clock)
			token, err := c.IssueAccess("a@x.com", "user-1", nil)
			require.NoError(t, err)

			clock.Advance(tc.advance)
			_, err = c.DecodeAndVerify(token)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCodec_BadSignature(t *testing.T) {
	clock := &fakeClock{t: epoch}
	other := NewCodec("another-secret-that-is-also-32-bytes-long", "nutricionista", time.Hour, time.Hour, WithClock(clock.Now))

	token, err := other.IssueAccess("a@x.com", "user-1", nil)
	require.NoError(t, err)

	_, err = newTestCodec(clock).DecodeAndVerify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestCodec_TamperedPayload(t *testing.T) {
	clock := &fakeClock{t: epoch}
	c := newTestCodec(clock)
	token, err := c.IssueAccess("a@x.com", "user-1", []string{"ROLE_USER"})
	require.NoError(t, err)

	forged, err := NewCodec(testSecret, "nutricionista", time.Hour, time.Hour, WithClock(clock.Now)).
		IssueAccess("a@x.com", "user-1", []string{"ROLE_ADMIN"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = c.DecodeAndVerify(spliced)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestCodec_Malformed(t *testing.T) {
	c := newTestCodec(&fakeClock{t: epoch})

	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		_, err := c.DecodeAndVerify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}

func TestCodec_Unsupported(t *testing.T) {
	clock := &fakeClock{t: epoch}
	c := newTestCodec(clock)
	claims := Claims{
		Type: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a@x.com",
			Issuer:    "nutricionista",
			IssuedAt:  jwt.NewNumericDate(epoch),
			ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rs256, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	unknownAlg := "eyJhbGciOiJYWVoiLCJ0eXAiOiJKV1QifQ." + strings.Split(hs512, ".")[1] + ".c2ln"

	for name, token := range map[string]string{"none": none, "HS512": hs512, "RS256": rs256, "unknown": unknownAlg} {
		_, err := c.DecodeAndVerify(token)
		assert.ErrorIs(t, err, ErrTokenUnsupported, name)
	}
}

func TestCodec_MissingExpiryIsMalformed(t *testing.T) {
	c := newTestCodec(&fakeClock{t: epoch})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Type:             TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a@x.com", Issuer: "nutricionista"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.DecodeAndVerify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_ClaimChecks(t *testing.T) {
	clock := &fakeClock{t: epoch}
	c := newTestCodec(clock)

	wrongIssuer := NewCodec(testSecret, "someone-else", time.Hour, time.Hour, WithClock(clock.Now))
	token, err := wrongIssuer.IssueAccess("a@x.com", "user-1", nil)
	require.NoError(t, err)
	_, err = c.DecodeAndVerify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	token, err = c.Issue("a@x.com", Claims{Type: "session"}, time.Hour)
	require.NoError(t, err)
	_, err = c.DecodeAndVerify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	token, err = c.Issue("", Claims{Type: TokenTypeAccess}, time.Hour)
	require.NoError(t, err)
	_, err = c.DecodeAndVerify(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_ExtractSubject(t *testing.T) {
	clock := &fakeClock{t: epoch}
	c := newTestCodec(clock)

	token, err := c.IssueRefresh("a@x.com", "user-1")
	require.NoError(t, err)

	sub, err := c.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sub)

	clock.Advance(8 * 24 * time.Hour)
	_, err = c.ExtractSubject(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
