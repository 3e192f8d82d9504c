// Package auth issues the short-lived proof token returned after a
// successful phone verification. Downstream login and registration
// exchange it instead of re-running the OTP flow.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService signs and validates verification proof tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenService creates a token service.
func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	if issuer == "" {
		issuer = "phonex"
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}
}

// VerificationClaims are the claims carried by a proof token. The
// subject is the verified phone number.
type VerificationClaims struct {
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// Issue signs a proof token for a phone that just passed verification.
func (s *TokenService) Issue(phone string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := VerificationClaims{
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   phone,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, authErrors.NewWithCause(ErrTokenGeneration, err)
	}
	return signed, expiresAt, nil
}

// Validate parses a proof token and returns its claims.
func (s *TokenService) Validate(tokenString string) (*VerificationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &VerificationClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, authErrors.NewWithCause(ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, authErrors.New(ErrTokenInvalid)
	}

	claims, ok := token.Claims.(*VerificationClaims)
	if !ok {
		return nil, authErrors.NewWithMessage(ErrTokenInvalid, "unexpected claims type")
	}
	return claims, nil
}
