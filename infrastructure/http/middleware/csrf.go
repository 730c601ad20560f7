package middleware

import (
	"net/http"

	"github.com/vantra/vantra/domain/autherr"
	"github.com/vantra/vantra/infrastructure/http/cookie"
	"github.com/vantra/vantra/infrastructure/http/response"
	"github.com/vantra/vantra/infrastructure/service/identity"
	"github.com/vantra/vantra/infrastructure/service/logger"
)

// CSRFProtect enforces the double-submit check on unsafe methods. Safe
// methods pass through, as do requests authenticated with a service
// token: machine callers carry no cookies, their request signature
// covers tampering instead.
func CSRFProtect(cookies *cookie.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get(identity.HeaderServiceToken) != "" {
				next.ServeHTTP(w, r)
				return
			}

			cookieValue := cookies.ReadCSRFCookie(r)
			headerValue := r.Header.Get(cookie.CSRFHeader)

			if !cookies.VerifyCSRFToken(cookieValue, headerValue) {
				logger.LogSecurityEvent(r.Context(), log, "csrf_check_failed", "MEDIUM", map[string]interface{}{
					"path":           r.URL.Path,
					"method":         r.Method,
					"cookie_present": cookieValue != "",
					"header_present": headerValue != "",
				})
				response.AppError(w, autherr.ErrCSRFMismatch("double-submit values absent or unequal"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
