package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/infrastructure/config"
)

const (
	claimTypeAccess = "access"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongPurpose = errors.New("wrong token purpose")
)

// Service mints and validates user-facing tokens. Access tokens and
// special-purpose tokens are signed with distinct secrets so neither
// class can be replayed as the other.
type Service struct {
	accessSecret  []byte
	specialSecret []byte
	accessTTL     time.Duration
}

func NewService(cfg *config.Config) (*Service, error) {
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("access token secret is required")
	}
	if cfg.SpecialTokenSecret == "" {
		return nil, fmt.Errorf("special token secret is required")
	}

	return &Service{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		specialSecret: []byte(cfg.SpecialTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
	}, nil
}

func (s *Service) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	now := time.Now()
	tokenClaims := jwt.MapClaims{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"roles":   claims.Roles,
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTTL).Unix(),
		"type":    claimTypeAccess,
	}
	if claims.TenantID != "" {
		tokenClaims["tenant_id"] = claims.TenantID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

func (s *Service) GenerateRefreshCredential() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*outbound.TokenClaims, error) {
	claims, err := s.parse(tokenString, s.accessSecret)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, ErrInvalidToken
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != claimTypeAccess {
		return nil, ErrWrongPurpose
	}

	result := &outbound.TokenClaims{
		UserID: userID,
		Roles:  []string{},
	}
	if email, ok := claims["email"].(string); ok {
		result.Email = email
	}
	if tenantID, ok := claims["tenant_id"].(string); ok {
		result.TenantID = tenantID
	}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				result.Roles = append(result.Roles, role)
			}
		}
	}
	if iat, ok := claims["iat"].(float64); ok {
		result.IssuedAt = int64(iat)
	}
	if exp, ok := claims["exp"].(float64); ok {
		result.ExpiresAt = int64(exp)
	}

	return result, nil
}

func (s *Service) GenerateSpecialToken(userID string, purpose outbound.SpecialTokenPurpose, ttl time.Duration) (string, error) {
	if purpose != outbound.PurposePasswordReset && purpose != outbound.PurposeEmailVerification {
		return "", fmt.Errorf("unsupported token purpose: %s", purpose)
	}

	now := time.Now()
	tokenClaims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"type":    string(purpose),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims)
	tokenString, err := token.SignedString(s.specialSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", purpose, err)
	}

	return tokenString, nil
}

// ValidateSpecialToken returns the subject only when both the signature
// and the purpose discriminant match. A well-signed token minted for a
// different flow is rejected.
func (s *Service) ValidateSpecialToken(tokenString string, expected outbound.SpecialTokenPurpose) (string, error) {
	claims, err := s.parse(tokenString, s.specialSecret)
	if err != nil {
		return "", err
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != string(expected) {
		return "", ErrWrongPurpose
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}

// DecodeUnverified returns the raw claims without any signature check.
// Diagnostics only; never an input to authorization decisions.
func (s *Service) DecodeUnverified(tokenString string) (map[string]interface{}, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) parse(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, s.handleValidationError(err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}
