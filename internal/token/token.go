// Package token mints and verifies the HS256 identity tokens shared by
// the session and bearer authentication paths. Verification failures
// collapse to ErrInvalidToken so internals never leak to callers.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that does not verify,
// regardless of the underlying parse or signature failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the authenticated address.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Service signs and verifies identity tokens against a shared secret.
type Service struct {
	secret []byte
}

// NewService creates a token service with the given shared secret.
func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Mint issues a signed token for an address. A zero expiresIn issues a
// non-expiring token (used for SMTP credentials).
func (s *Service) Mint(address string, expiresIn time.Duration) (string, error) {
	claims := Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if expiresIn > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(expiresIn))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token signature and returns the address claim.
func (s *Service) Verify(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Address == "" {
		return "", ErrInvalidToken
	}
	return claims.Address, nil
}
