package cookie

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/vantra/vantra/infrastructure/config"
)

// Default cookie names, namespaced to the product.
const (
	AccessTokenCookie  = "vantra_access_token"
	RefreshTokenCookie = "vantra_refresh_token"
	CSRFTokenCookie    = "vantra_csrf_token"
)

// CSRFHeader is the request header the client must echo the CSRF
// cookie value into on unsafe methods.
const CSRFHeader = "X-CSRF-Token"

// Manager binds issued tokens to cookies. All attributes are computed
// once at construction; SetAuthCookies and ClearAuthCookies use the
// exact same attribute tuples so browser clears actually match.
type Manager struct {
	domain            string
	secure            bool
	sameSite          http.SameSite
	accessMaxAge      int
	refreshMaxAge     int
	csrfMaxAge        int
	refreshCookiePath string
}

func NewManager(cfg *config.Config) *Manager {
	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}

	return &Manager{
		domain:            cfg.CookieDomain,
		secure:            cfg.CookieSecure,
		sameSite:          sameSite,
		accessMaxAge:      int(cfg.AccessTokenTTL / time.Second),
		refreshMaxAge:     int(cfg.RefreshTokenTTL / time.Second),
		csrfMaxAge:        int(cfg.CSRFTokenTTL / time.Second),
		refreshCookiePath: cfg.RefreshCookiePath,
	}
}

// SetAuthCookies writes the full cookie set for an authenticated
// session. Access and refresh cookies are HttpOnly; the refresh cookie
// is scoped to the refresh endpoint so it never rides along on other
// requests. Only the CSRF cookie is readable by client script.
func (m *Manager) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken, csrfToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		Domain:   m.domain,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   m.accessMaxAge,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     m.refreshCookiePath,
		Domain:   m.domain,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   m.refreshMaxAge,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFTokenCookie,
		Value:    csrfToken,
		Path:     "/",
		Domain:   m.domain,
		HttpOnly: false,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   m.csrfMaxAge,
	})
}

// ClearAuthCookies expires all three cookies with the attribute tuples
// they were set with.
func (m *Manager) ClearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   -1,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     m.refreshCookiePath,
		Domain:   m.domain,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   -1,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFTokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		HttpOnly: false,
		Secure:   m.secure,
		SameSite: m.sameSite,
		MaxAge:   -1,
	})
}

// GenerateCSRFToken returns 256 bits of hex-encoded randomness.
func (m *Manager) GenerateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// VerifyCSRFToken compares the double-submitted values in constant
// time. Fails closed when either side is absent.
func (m *Manager) VerifyCSRFToken(cookieValue, headerValue string) bool {
	if cookieValue == "" || headerValue == "" {
		return false
	}
	return hmac.Equal([]byte(cookieValue), []byte(headerValue))
}

// ReadAccessToken returns the access token cookie value, or "".
func (m *Manager) ReadAccessToken(r *http.Request) string {
	c, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// ReadRefreshToken returns the refresh token cookie value, or "".
func (m *Manager) ReadRefreshToken(r *http.Request) string {
	c, err := r.Cookie(RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// ReadCSRFCookie returns the CSRF cookie value, or "".
func (m *Manager) ReadCSRFCookie(r *http.Request) string {
	c, err := r.Cookie(CSRFTokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
