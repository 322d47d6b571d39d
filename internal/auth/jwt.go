// Package auth verifies the bearer tokens issued by the identity provider.
// Tokens are HS256 JWTs whose subject is the account id and whose optional
// "name" claim is the display name.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned for tokens past their exp claim.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid covers bad signatures, wrong issuer/audience and missing subjects.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenMalformed is returned when the token cannot be parsed at all.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrNoSecret is returned by NewVerifier without a signing secret.
	ErrNoSecret = errors.New("auth: signing secret is empty")
)

// Claims are the claims the service relies on.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AccountID returns the subject claim.
func (c *Claims) AccountID() string { return c.Subject }

// Verifier validates tokens against a shared secret.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewVerifier builds a Verifier. issuer and audience are checked only when non-empty.
func NewVerifier(secret, issuer, audience string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, audience: audience, leeway: 30 * time.Second}, nil
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Issuer mints tokens with the same secret. Used by tests and local tooling.
type Issuer struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Issue signs a token for accountID.
func (i Issuer) Issue(accountID, name string) (string, error) {
	ttl := i.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	now := time.Now()
	c := &Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if i.Audience != "" {
		c.Audience = jwt.ClaimStrings{i.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(i.Secret))
}
