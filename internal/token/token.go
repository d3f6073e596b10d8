// Package token issues and validates the signed bearer tokens used by the
// auth endpoints. Tokens are stateless: a validly-signed, non-expired token
// is always accepted, and nothing is persisted server-side.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or its signature
// does not verify.
var ErrInvalidToken = errors.New("invalid token")

// Service signs and verifies HS256 tokens with a process-wide secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService constructs a Service. ttl bounds the lifetime of issued tokens.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue produces a signed token embedding the subject, issued-at, expiry,
// and any extra claims. Reserved claims cannot be overridden by extra.
func (s *Service) Issue(subject string, extra map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	for key, value := range extra {
		claims[key] = value
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify reports whether the token is validly signed, unexpired, and issued
// for the expected subject. It fails closed: malformed input, a bad
// signature, a missing or past expiry, and a subject mismatch all return
// false. Expiry is a wall-clock comparison with no skew tolerance.
func (s *Service) Verify(tokenString, expectedSubject string) bool {
	claims, err := s.parse(tokenString)
	if err != nil {
		return false
	}
	if claims.ExpiresAt == nil || !time.Now().Before(claims.ExpiresAt.Time) {
		return false
	}
	return claims.Subject == expectedSubject
}

// ExtractSubject decodes the token and verifies its signature only; expiry
// is not checked. It returns an error wrapping ErrInvalidToken on a bad
// signature or malformed payload.
func (s *Service) ExtractSubject(tokenString string) (string, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *Service) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
