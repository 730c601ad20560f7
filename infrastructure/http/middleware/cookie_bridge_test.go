package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vantra/vantra/infrastructure/http/cookie"
)

func TestCookieBridge(t *testing.T) {
	cookies := newTestCookieManager()

	var seenAuthorization string
	bridged := CookieBridge(cookies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuthorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("SynthesizesHeaderFromCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: cookie.AccessTokenCookie, Value: "cookie-token"})
		bridged.ServeHTTP(httptest.NewRecorder(), req)

		if seenAuthorization != "Bearer cookie-token" {
			t.Errorf("Authorization = %q, want synthesized bearer from cookie", seenAuthorization)
		}
	})

	t.Run("ExplicitHeaderWins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: cookie.AccessTokenCookie, Value: "cookie-token"})
		bridged.ServeHTTP(httptest.NewRecorder(), req)

		if seenAuthorization != "Bearer header-token" {
			t.Errorf("Authorization = %q, the explicit header must not be overwritten", seenAuthorization)
		}
	})

	t.Run("NoCredentialPassesThrough", func(t *testing.T) {
		bridged.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))
		if seenAuthorization != "" {
			t.Errorf("Authorization = %q, want empty", seenAuthorization)
		}
	})
}
