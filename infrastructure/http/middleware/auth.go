package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/autherr"
	"github.com/vantra/vantra/infrastructure/http/response"
	"github.com/vantra/vantra/infrastructure/service/logger"
	"github.com/vantra/vantra/infrastructure/service/token"
)

type contextKey string

const authUserKey contextKey = "auth_user"

type AuthMiddleware struct {
	tokenService outbound.TokenService
	logger       logger.Logger
}

func NewAuthMiddleware(tokenService outbound.TokenService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		logger:       log,
	}
}

// RequireAuth terminates the request unless a valid bearer token is
// present: 401 when no credential was supplied, 403 when one was
// supplied and rejected. The client never learns why it was rejected.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := bearerToken(r)
		if !ok {
			response.AppError(w, autherr.ErrMissingCredential("no bearer credential on request"))
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(bearer)
		if err != nil {
			appErr := classifyAccessTokenError(err)
			logger.LogSecurityEvent(r.Context(), m.logger, "access_token_rejected", "MEDIUM", map[string]interface{}{
				"code":   appErr.Code,
				"reason": err.Error(),
				"path":   r.URL.Path,
			})
			response.AppError(w, appErr)
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuth attaches an identity when a valid token is present and
// otherwise continues unauthenticated. It never blocks the request.
func (m *AuthMiddleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(token)
		if err != nil {
			m.logger.Debug(r.Context(), "Optional auth token rejected, continuing unauthenticated", map[string]interface{}{
				"reason": err.Error(),
				"path":   r.URL.Path,
			})
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireRoles gates on the attached identity's role set. Denies when
// no identity is attached or when the role sets do not intersect.
func (m *AuthMiddleware) RequireRoles(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserClaims(r.Context())
			if claims == nil {
				response.AppError(w, autherr.ErrMissingCredential("no identity attached"))
				return
			}

			if !claims.HasRole(roles...) {
				logger.LogSecurityEvent(r.Context(), m.logger, "role_denied", "LOW", map[string]interface{}{
					"user_id":  claims.UserID,
					"required": roles,
					"path":     r.URL.Path,
				})
				response.AppError(w, autherr.ErrInsufficientPermission(strings.Join(roles, ",")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func classifyAccessTokenError(err error) *autherr.AppError {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return autherr.ErrExpired(err.Error())
	case errors.Is(err, token.ErrWrongPurpose):
		return autherr.ErrWrongTokenType(err.Error())
	default:
		return autherr.ErrInvalidSignature(err.Error())
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserClaims retrieves user claims from context
func GetUserClaims(ctx context.Context) *outbound.TokenClaims {
	if claims, ok := ctx.Value(authUserKey).(*outbound.TokenClaims); ok {
		return claims
	}
	return nil
}
