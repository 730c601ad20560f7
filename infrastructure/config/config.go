package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const EnvProduction = "production"

type Config struct {
	DatabaseURL        string
	AccessTokenSecret  string
	SpecialTokenSecret string
	ServiceTokenSecret string
	RefreshTokenSalt   string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	SpecialTokenTTL    time.Duration
	ServiceTokenTTL    time.Duration
	ServerPort         string
	ServerHost         string
	Environment        string
	ServiceName        string
	ServiceID          string

	CookieDomain   string
	CookieSecure   bool
	CSRFTokenTTL   time.Duration
	RefreshCookiePath string

	ServiceRegistryFile string
	NonceGuardEnabled   bool
	RedisURL            string

	MailerWebhookURL string

	AuditTrackerEnabled bool

	LogLevel               string
	LogFormat              string
	LogCorrelationIDHeader string

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

var (
	ErrMissingDatabaseURL        = errors.New("DATABASE_URL is required")
	ErrMissingAccessTokenSecret  = errors.New("ACCESS_TOKEN_SECRET is required in production")
	ErrMissingSpecialTokenSecret = errors.New("SPECIAL_TOKEN_SECRET is required in production")
	ErrMissingServiceTokenSecret = errors.New("SERVICE_TOKEN_SECRET is required in production")
	ErrMissingRefreshSalt        = errors.New("REFRESH_TOKEN_SALT is required in production")
	ErrInvalidTokenTTL           = errors.New("invalid token TTL format")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		SpecialTokenSecret: os.Getenv("SPECIAL_TOKEN_SECRET"),
		ServiceTokenSecret: os.Getenv("SERVICE_TOKEN_SECRET"),
		RefreshTokenSalt:   os.Getenv("REFRESH_TOKEN_SALT"),
		ServerPort:         getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:         getEnvOrDefault("SERVER_HOST", "localhost"),
		Environment:        getEnvOrDefault("ENV", "development"),
		ServiceName:        getEnvOrDefault("SERVICE_NAME", "trust-service"),
		ServiceID:          getEnvOrDefault("SERVICE_ID", "trust-service"),

		CookieDomain:      os.Getenv("COOKIE_DOMAIN"),
		RefreshCookiePath: getEnvOrDefault("REFRESH_COOKIE_PATH", "/v1/auth/refresh"),

		ServiceRegistryFile: os.Getenv("SERVICE_REGISTRY_FILE"),
		NonceGuardEnabled:   getEnvOrDefaultBool("NONCE_GUARD_ENABLED", false),
		RedisURL:            getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		MailerWebhookURL: os.Getenv("MAILER_WEBHOOK_URL"),

		AuditTrackerEnabled: getEnvOrDefaultBool("AUDIT_TRACKER_ENABLED", true),

		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "json"),
		LogCorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),

		CORSEnabled:          getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:   parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
	}

	// Cookies are Secure whenever the deployment is production, unless
	// explicitly overridden.
	cfg.CookieSecure = getEnvOrDefaultBool("COOKIE_SECURE", cfg.IsProduction())

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	// Secrets must be present in production. Outside production a random
	// per-process fallback is generated so tokens stop verifying across
	// restarts, which is acceptable for development only.
	if err := cfg.resolveSecret(&cfg.AccessTokenSecret, "ACCESS_TOKEN_SECRET", ErrMissingAccessTokenSecret); err != nil {
		return nil, err
	}
	if err := cfg.resolveSecret(&cfg.SpecialTokenSecret, "SPECIAL_TOKEN_SECRET", ErrMissingSpecialTokenSecret); err != nil {
		return nil, err
	}
	if err := cfg.resolveSecret(&cfg.ServiceTokenSecret, "SERVICE_TOKEN_SECRET", ErrMissingServiceTokenSecret); err != nil {
		return nil, err
	}
	if err := cfg.resolveSecret(&cfg.RefreshTokenSalt, "REFRESH_TOKEN_SALT", ErrMissingRefreshSalt); err != nil {
		return nil, err
	}

	accessTokenTTL, err := parseTokenTTL(getEnvOrDefault("ACCESS_TOKEN_TTL", "3600"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.AccessTokenTTL = accessTokenTTL

	refreshTokenTTL, err := parseTokenTTL(getEnvOrDefault("REFRESH_TOKEN_TTL", "2592000"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.RefreshTokenTTL = refreshTokenTTL

	specialTokenTTL, err := parseTokenTTL(getEnvOrDefault("SPECIAL_TOKEN_TTL", "1800"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.SpecialTokenTTL = specialTokenTTL

	serviceTokenTTL, err := parseTokenTTL(getEnvOrDefault("SERVICE_TOKEN_TTL", "60"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.ServiceTokenTTL = serviceTokenTTL

	csrfTokenTTL, err := parseTokenTTL(getEnvOrDefault("CSRF_TOKEN_TTL", "86400"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.CSRFTokenTTL = csrfTokenTTL

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// resolveSecret enforces the startup secret policy: hard failure in
// production, loud warning plus a per-process random value elsewhere.
func (c *Config) resolveSecret(target *string, name string, missing error) error {
	if *target != "" {
		return nil
	}
	if c.IsProduction() {
		return missing
	}

	fallback, err := randomSecret()
	if err != nil {
		return fmt.Errorf("failed to generate fallback for %s: %w", name, err)
	}
	*target = fallback
	fmt.Fprintf(os.Stderr, "[config] WARNING: %s is not set; using a random per-process value. Tokens will not survive a restart. Never run production like this.\n", name)
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
