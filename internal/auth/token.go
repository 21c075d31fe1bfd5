package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Codec failure kinds. Callers outside this package collapse them into their
// own error taxonomy and never expose them directly.
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenUnsupported  = errors.New("token algorithm unsupported")
)

var errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// Claims is the payload of every token. Subject is the identity's email.
type Claims struct {
	Type   string   `json:"type"`
	Roles  []string `json:"roles,omitempty"`
	UserID string   `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

// Validate is run by the parser after the registered-claim checks.
func (c Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("missing subject")
	}
	if c.Type != TokenTypeAccess && c.Type != TokenTypeRefresh {
		return fmt.Errorf("unknown token type %q", c.Type)
	}
	return nil
}

// Codec issues and verifies HS256 tokens with one process-wide secret.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption customizes a Codec.
type CodecOption func(*Codec)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a Codec. accessTTL and refreshTTL are the lifetimes used by
// IssueAccess and IssueRefresh.
func NewCodec(secret, issuer string, accessTTL, refreshTTL time.Duration, opts ...CodecOption) *Codec {
	c := &Codec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AccessTTL is the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL is the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// Now is the codec's clock.
func (c *Codec) Now() time.Time { return c.now() }

// Issue signs a token for subject valid for ttl. Registered claims in claims
// are overwritten; a random jti makes every token unique even within the same
// second.
func (c *Codec) Issue(subject string, claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Type, err)
	}
	return signed, nil
}

// IssueAccess signs an access token carrying a snapshot of roles.
func (c *Codec) IssueAccess(email, userID string, roles []string) (string, error) {
	return c.Issue(email, Claims{Type: TokenTypeAccess, Roles: roles, UserID: userID}, c.accessTTL)
}

// IssueRefresh signs a refresh token.
func (c *Codec) IssueRefresh(email, userID string) (string, error) {
	return c.Issue(email, Claims{Type: TokenTypeRefresh, UserID: userID}, c.refreshTTL)
}

// DecodeAndVerify checks algorithm, signature, expiry and issuer and returns
// the claims. A token is expired once now >= exp; exp is mandatory.
func (c *Codec) DecodeAndVerify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnsupportedAlgorithm
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// ExtractSubject returns the verified token's subject.
func (c *Codec) ExtractSubject(token string) (string, error) {
	claims, err := c.DecodeAndVerify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, errUnsupportedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrTokenUnsupported, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrTokenBadSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
}
