package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the platform JWT claims the client reads.
type TokenClaims struct {
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the claims of an API token without verifying the
// signature. The client holds no signing key, so claims are used only
// for display defaults and the resume-time expiry check; the backend
// re-authenticates the token on every request.
func ParseClaims(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token claims: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's expiry has passed. Tokens
// without an exp claim are treated as unexpired.
func (c *TokenClaims) Expired() bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Now().After(c.ExpiresAt.Time)
}
