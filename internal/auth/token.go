package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type discriminator carried in the claims; a refresh token must
// never pass verification where an access token is expected.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	clockSkew         = 5 * time.Second
)

// Claims is the JWT payload minted for access and refresh tokens.
type Claims struct {
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID parses the token subject as a positive numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrTokenInvalid
	}
	return id, nil
}

// Codec signs and verifies the service's HS256 tokens.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption customizes token lifetimes and the clock.
type CodecOption func(*Codec)

func WithAccessTTL(d time.Duration) CodecOption {
	return func(c *Codec) {
		if d > 0 {
			c.accessTTL = d
		}
	}
}

func WithRefreshTTL(d time.Duration) CodecOption {
	return func(c *Codec) {
		if d > 0 {
			c.refreshTTL = d
		}
	}
}

func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Codec{
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL reports the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess mints a signed access token for the user.
func (c *Codec) IssueAccess(userID int64, role GlobalRole) (string, time.Time, error) {
	return c.issue(userID, role, TokenTypeAccess, c.accessTTL)
}

// IssueRefresh mints a signed refresh token for the user.
func (c *Codec) IssueRefresh(userID int64, role GlobalRole) (string, time.Time, error) {
	return c.issue(userID, role, TokenTypeRefresh, c.refreshTTL)
}

func (c *Codec) issue(userID int64, role GlobalRole, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := c.now().UTC()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Role:      string(role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccess checks signature, expiry and token type for an access token.
func (c *Codec) VerifyAccess(token string) (*Claims, error) {
	return c.verify(token, TokenTypeAccess)
}

// VerifyRefresh checks signature, expiry and token type for a refresh token.
func (c *Codec) VerifyRefresh(token string) (*Claims, error) {
	return c.verify(token, TokenTypeRefresh)
}

func (c *Codec) verify(token, wantType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return c.secret, nil
		},
		jwt.WithTimeFunc(c.now),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != wantType {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Decode parses the claims without verifying the signature. Callers
// that gate access must use VerifyAccess instead.
func (c *Codec) Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
