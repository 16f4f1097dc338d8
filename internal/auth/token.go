package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClass tags a token as access or refresh at the type level, so a
// token of one class is rejected where the other is required even before
// the signing secret is consulted.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

type Claims struct {
	Class TokenClass `json:"typ"`
	jwt.RegisteredClaims
}

// Expiry returns the token's expiry instant. Decode guarantees the claim
// is present.
func (c Claims) Expiry() time.Time {
	return c.ExpiresAt.Time
}

// TokenCodec signs and verifies the two token classes. Decoding checks
// signature, algorithm, and class only; expiry is enforced by the Service
// against wall-clock time, which keeps "tampered" and "merely expired"
// distinguishable.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssuePair signs a fresh access+refresh pair for the subject. Both tokens
// carry the same subject and full class TTLs.
func (c *TokenCodec) IssuePair(subjectID string, now time.Time) (TokenPair, error) {
	access, err := c.issue(subjectID, TokenClassAccess, c.accessSecret, c.accessTTL, now)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := c.issue(subjectID, TokenClassRefresh, c.refreshSecret, c.refreshTTL, now)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (c *TokenCodec) issue(subjectID string, class TokenClass, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Class: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", ErrInvalidToken
	}

	return signed, nil
}

func (c *TokenCodec) DecodeAccess(token string) (Claims, error) {
	return c.decode(token, TokenClassAccess, c.accessSecret)
}

func (c *TokenCodec) DecodeRefresh(token string) (Claims, error) {
	return c.decode(token, TokenClassRefresh, c.refreshSecret)
}

func (c *TokenCodec) decode(token string, class TokenClass, secret []byte) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Class != class || claims.Subject == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return *claims, nil
}
