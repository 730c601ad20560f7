package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
	"github.com/vantra/vantra/infrastructure/config"
)

// TargetAny lets a token be presented to any service.
const TargetAny = "*"

var (
	ErrMalformedToken  = errors.New("malformed service token")
	ErrBadSignature    = errors.New("service token signature mismatch")
	ErrTokenExpired    = errors.New("service token expired")
	ErrWrongTarget     = errors.New("service token targeted at another service")
	ErrUnknownService  = errors.New("unknown source service")
	ErrReplayedNonce   = errors.New("service token nonce already used")
)

// tokenPayload is the signed body of a service token. The nonce makes
// every token unique; with the nonce guard enabled it also bounds each
// token to a single use.
type tokenPayload struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nonce"`
}

// Authenticator issues and verifies service-to-service credentials as
// base64(payload).signature with an HMAC-SHA256 over the encoded payload.
type Authenticator struct {
	secret     []byte
	defaultTTL time.Duration
	registry   outbound.ServiceRegistry
	nonceGuard outbound.NonceGuard
}

func NewAuthenticator(cfg *config.Config, reg outbound.ServiceRegistry, guard outbound.NonceGuard) (*Authenticator, error) {
	if cfg.ServiceTokenSecret == "" {
		return nil, fmt.Errorf("service token secret is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("service registry is required")
	}

	return &Authenticator{
		secret:     []byte(cfg.ServiceTokenSecret),
		defaultTTL: cfg.ServiceTokenTTL,
		registry:   reg,
		nonceGuard: guard,
	}, nil
}

// GenerateToken mints a token from source to target. A zero ttl uses
// the configured default (60s).
func (a *Authenticator) GenerateToken(source, target string, ttl time.Duration) (string, error) {
	if source == "" {
		return "", fmt.Errorf("source service id is required")
	}
	if target == "" {
		target = TargetAny
	}
	if ttl == 0 {
		ttl = a.defaultTTL
	}

	now := time.Now()
	payload := tokenPayload{
		Source:    source,
		Target:    target,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Nonce:     uuid.NewString(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode service token payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + a.sign(encoded), nil
}

// VerifyToken checks structure, signature, expiry, target and source
// registry membership, in that order, and resolves the source identity.
// The signature comparison is constant time.
func (a *Authenticator) VerifyToken(ctx context.Context, token, expectedTarget string) (*entity.ServiceIdentity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformedToken
	}
	encoded, signature := parts[0], parts[1]

	expected := a.sign(encoded)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrBadSignature
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken
	}

	var payload tokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrMalformedToken
	}

	if time.Now().Unix() > payload.ExpiresAt {
		return nil, ErrTokenExpired
	}

	if payload.Target != TargetAny && payload.Target != expectedTarget {
		return nil, ErrWrongTarget
	}

	source, err := a.registry.Find(payload.Source)
	if err != nil {
		return nil, ErrUnknownService
	}

	if a.nonceGuard != nil && a.nonceGuard.Enabled() {
		ttl := time.Until(time.Unix(payload.ExpiresAt, 0))
		fresh, err := a.nonceGuard.CheckAndStore(ctx, payload.Nonce, ttl)
		if err != nil {
			return nil, fmt.Errorf("nonce guard check failed: %w", err)
		}
		if !fresh {
			return nil, ErrReplayedNonce
		}
	}

	return source, nil
}

func (a *Authenticator) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(encodedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}
