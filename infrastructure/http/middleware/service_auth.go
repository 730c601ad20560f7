package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/vantra/vantra/domain/autherr"
	"github.com/vantra/vantra/domain/entity"
	"github.com/vantra/vantra/infrastructure/http/response"
	"github.com/vantra/vantra/infrastructure/service/identity"
	"github.com/vantra/vantra/infrastructure/service/logger"
)

const serviceIdentityKey contextKey = "service_identity"

type ServiceAuthMiddleware struct {
	authenticator *identity.Authenticator
	serviceID     string
	logger        logger.Logger
}

func NewServiceAuthMiddleware(auth *identity.Authenticator, serviceID string, log logger.Logger) *ServiceAuthMiddleware {
	return &ServiceAuthMiddleware{
		authenticator: auth,
		serviceID:     serviceID,
		logger:        log,
	}
}

// Authenticate verifies a service token when one is present and
// attaches the resolved identity. Requests without a service token pass
// through untouched; this middleware never blocks user-token flows.
func (m *ServiceAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(identity.HeaderServiceToken)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		source, err := m.authenticator.VerifyToken(r.Context(), token, m.serviceID)
		if err != nil {
			appErr := classifyServiceTokenError(err)
			logger.LogSecurityEvent(r.Context(), m.logger, "service_token_rejected", "MEDIUM", map[string]interface{}{
				"code":   appErr.Code,
				"reason": err.Error(),
				"path":   r.URL.Path,
			})
			response.AppError(w, appErr)
			return
		}

		// Verify the request signature when signature headers ride along.
		signature := r.Header.Get(identity.HeaderServiceSignature)
		timestamp := r.Header.Get(identity.HeaderServiceTimestamp)
		if signature != "" || timestamp != "" {
			body, err := readAndRestoreBody(r)
			if err != nil {
				response.InternalServerError(w, "Internal server error")
				return
			}

			if err := m.authenticator.VerifyRequestSignature(r.Method, r.URL.Path, timestamp, signature, body); err != nil {
				appErr := classifySignatureError(err)
				logger.LogSecurityEvent(r.Context(), m.logger, "request_signature_rejected", "HIGH", map[string]interface{}{
					"code":   appErr.Code,
					"reason": err.Error(),
					"source": source.ID,
					"path":   r.URL.Path,
				})
				response.AppError(w, appErr)
				return
			}
		}

		ctx := context.WithValue(r.Context(), serviceIdentityKey, source)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates on the attached service identity's grants.
func (m *ServiceAuthMiddleware) RequirePermission(permission string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			svc := GetServiceIdentity(r.Context())
			if svc == nil {
				response.AppError(w, autherr.ErrMissingCredential("no service identity attached"))
				return
			}

			if !svc.HasPermission(permission) {
				logger.LogSecurityEvent(r.Context(), m.logger, "service_permission_denied", "MEDIUM", map[string]interface{}{
					"service":    svc.ID,
					"permission": permission,
					"path":       r.URL.Path,
				})
				response.AppError(w, autherr.ErrInsufficientPermission(permission))
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

func classifyServiceTokenError(err error) *autherr.AppError {
	switch {
	case errors.Is(err, identity.ErrMalformedToken):
		return autherr.ErrMalformedCredential(err.Error())
	case errors.Is(err, identity.ErrTokenExpired):
		return autherr.ErrExpired(err.Error())
	case errors.Is(err, identity.ErrWrongTarget):
		return autherr.ErrWrongTarget(err.Error())
	case errors.Is(err, identity.ErrUnknownService):
		return autherr.ErrUnknownPrincipal(err.Error())
	case errors.Is(err, identity.ErrReplayedNonce):
		return autherr.ErrReplayedNonce(err.Error())
	default:
		return autherr.ErrInvalidSignature(err.Error())
	}
}

func classifySignatureError(err error) *autherr.AppError {
	switch {
	case errors.Is(err, identity.ErrTimestampSkew):
		return autherr.ErrExpired(err.Error())
	case errors.Is(err, identity.ErrBadTimestamp):
		return autherr.ErrMalformedCredential(err.Error())
	default:
		return autherr.ErrInvalidSignature(err.Error())
	}
}

// GetServiceIdentity retrieves the attached service identity, or nil.
func GetServiceIdentity(ctx context.Context) *entity.ServiceIdentity {
	if svc, ok := ctx.Value(serviceIdentityKey).(*entity.ServiceIdentity); ok {
		return svc
	}
	return nil
}

func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
