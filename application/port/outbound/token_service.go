package outbound

import (
	"time"
)

// SpecialTokenPurpose discriminates single-purpose tokens so a token
// minted for one flow can never be redeemed in another.
type SpecialTokenPurpose string

const (
	PurposePasswordReset     SpecialTokenPurpose = "password-reset"
	PurposeEmailVerification SpecialTokenPurpose = "email-verification"
)

type TokenClaims struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles"`
	IssuedAt int64    `json:"iat"`
	ExpiresAt int64   `json:"exp"`
}

// HasRole reports whether the claims carry any of the given roles.
func (c *TokenClaims) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range c.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type TokenService interface {
	GenerateAccessToken(claims TokenClaims) (string, error)
	GenerateRefreshCredential() (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	GenerateSpecialToken(userID string, purpose SpecialTokenPurpose, ttl time.Duration) (string, error)
	ValidateSpecialToken(token string, expected SpecialTokenPurpose) (string, error)
	// DecodeUnverified returns the structural claims without checking the
	// signature. Diagnostics only, never an authorization input.
	DecodeUnverified(token string) (map[string]interface{}, error)
}
