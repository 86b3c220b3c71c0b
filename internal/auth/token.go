package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the identity of a signed-in user. The role is informational;
// Verify re-resolves it from configuration so revoking admin rights takes effect
// without reissuing tokens.
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	resolver *Resolver
	now      func() time.Time
}

func NewTokens(secret string, ttl time.Duration, issuer string, resolver *Resolver) *Tokens {
	return &Tokens{
		secret:   []byte(secret),
		ttl:      ttl,
		issuer:   issuer,
		resolver: resolver,
		now:      time.Now,
	}
}

// Issue signs a token for email.
func (t *Tokens) Issue(email string) (string, error) {
	actor := t.resolver.Resolve(email)
	if actor.ID == "" {
		return "", fmt.Errorf("issuing token: email is required")
	}

	now := t.now()
	claims := Claims{
		Email: actor.ID,
		Role:  actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Verify parses a signed token and returns the actor it identifies.
func (t *Tokens) Verify(raw string) (Actor, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Email == "" {
		return Actor{}, fmt.Errorf("%w: missing email", ErrInvalidToken)
	}

	return t.resolver.Resolve(claims.Email), nil
}
