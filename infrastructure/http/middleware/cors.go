package middleware

import (
	"net/http"
	"strings"

	"github.com/vantra/vantra/infrastructure/http/cookie"
	"github.com/vantra/vantra/infrastructure/service/identity"
)

// CORS adds CORS headers for allowed origins and handles preflight
// requests. allowedOrigins is a list of exact origins (scheme + host +
// optional port). Credentials must be allowed for cookie-based sessions
// to work cross-origin.
func CORS(next http.Handler, allowedOrigins []string, allowCredentials bool) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "" {
			continue
		}
		allowed[strings.TrimSpace(o)] = struct{}{}
	}

	defaultHeaders := strings.Join([]string{
		"Content-Type",
		"Authorization",
		CorrelationIDHeader,
		cookie.CSRFHeader,
		identity.HeaderServiceToken,
		identity.HeaderServiceTimestamp,
		identity.HeaderServiceSignature,
		identity.HeaderSourceService,
	}, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		// Always vary on Origin so caches don't mix responses
		w.Header().Add("Vary", "Origin")

		if origin != "" {
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if allowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				w.Header().Set("Access-Control-Expose-Headers", CorrelationIDHeader)
			}
		}

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
			reqHeaders := r.Header.Get("Access-Control-Request-Headers")
			if reqHeaders == "" {
				w.Header().Set("Access-Control-Allow-Headers", defaultHeaders)
			} else {
				// Echo back requested headers
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
