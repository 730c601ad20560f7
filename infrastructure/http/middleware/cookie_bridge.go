package middleware

import (
	"net/http"

	"github.com/vantra/vantra/infrastructure/http/cookie"
)

// CookieBridge synthesizes an Authorization header from the access
// token cookie when no bearer header is present, so browser sessions
// and API clients run through the exact same verification path. An
// explicit Authorization header always wins over the cookie.
func CookieBridge(cookies *cookie.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				if token := cookies.ReadAccessToken(r); token != "" {
					r.Header.Set("Authorization", "Bearer "+token)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
