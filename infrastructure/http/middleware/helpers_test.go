package middleware

import (
	"testing"
	"time"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/infrastructure/config"
	"github.com/vantra/vantra/infrastructure/http/cookie"
	"github.com/vantra/vantra/infrastructure/service/identity"
	"github.com/vantra/vantra/infrastructure/service/logger"
	"github.com/vantra/vantra/infrastructure/service/registry"
	"github.com/vantra/vantra/infrastructure/service/token"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "development",
		AccessTokenSecret:  "test-access-secret",
		SpecialTokenSecret: "test-special-secret",
		ServiceTokenSecret: "test-service-secret",
		RefreshTokenSalt:   "test-salt",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    30 * 24 * time.Hour,
		SpecialTokenTTL:    30 * time.Minute,
		ServiceTokenTTL:    time.Minute,
		CSRFTokenTTL:       24 * time.Hour,
		RefreshCookiePath:  "/v1/auth/refresh",
	}
}

func testLogger() logger.Logger {
	return logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       "fatal",
		Format:      "text",
		ServiceName: "test",
	})
}

func newTestTokenService(t *testing.T) *token.Service {
	t.Helper()
	svc, err := token.NewService(testConfig())
	if err != nil {
		t.Fatalf("Failed to create token service: %v", err)
	}
	return svc
}

func mintAccessToken(t *testing.T, svc *token.Service, userID string, roles []string) string {
	t.Helper()
	tok, err := svc.GenerateAccessToken(outbound.TokenClaims{
		UserID: userID,
		Email:  userID + "@example.com",
		Roles:  roles,
	})
	if err != nil {
		t.Fatalf("Failed to mint access token: %v", err)
	}
	return tok
}

func newTestCookieManager() *cookie.Manager {
	return cookie.NewManager(testConfig())
}

func newTestAuthenticator(t *testing.T) *identity.Authenticator {
	t.Helper()
	auth, err := identity.NewAuthenticator(testConfig(), registry.NewStaticRegistry(), nil)
	if err != nil {
		t.Fatalf("Failed to create authenticator: %v", err)
	}
	return auth
}
