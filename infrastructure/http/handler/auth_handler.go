package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vantra/vantra/application/port/inbound"
	"github.com/vantra/vantra/application/usecase"
	"github.com/vantra/vantra/infrastructure/http/cookie"
	"github.com/vantra/vantra/infrastructure/http/middleware"
	"github.com/vantra/vantra/infrastructure/http/response"
	"github.com/vantra/vantra/infrastructure/http/validator"
)

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
	cookies     *cookie.Manager
}

func NewAuthHandler(authUseCase inbound.AuthUseCase, cookies *cookie.Manager) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
		cookies:     cookies,
	}
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// sessionResponse is the login/refresh body. The access and refresh
// tokens never appear here; cookies are their only transport. The CSRF
// token is returned so single-page clients can echo it without reading
// the cookie.
type sessionResponse struct {
	Success   bool                `json:"success"`
	User      inbound.UserProfile `json:"user"`
	CSRFToken string              `json:"csrfToken"`
	ExpiresIn int                 `json:"expiresIn"`
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.UnprocessableEntity(w, "Invalid email format")
		return
	}
	if !validator.ValidateRequired(req.Password) {
		response.UnprocessableEntity(w, "Password is required")
		return
	}

	result, err := h.authUseCase.Login(r.Context(), inbound.LoginRequest{
		Email:             req.Email,
		Password:          req.Password,
		RememberMe:        req.RememberMe,
		DeviceFingerprint: deviceFingerprint(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials),
			errors.Is(err, usecase.ErrUserNotFound):
			response.Unauthorized(w, "Invalid email or password")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	h.issueSession(w, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCredential := h.cookies.ReadRefreshToken(r)
	if refreshCredential == "" {
		response.Unauthorized(w, "Refresh credential required")
		return
	}

	result, err := h.authUseCase.Refresh(r.Context(), inbound.RefreshRequest{
		RefreshCredential: refreshCredential,
		DeviceFingerprint: deviceFingerprint(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidRefreshToken),
			errors.Is(err, usecase.ErrRefreshTokenExpired),
			errors.Is(err, usecase.ErrRefreshTokenRevoked):
			h.cookies.ClearAuthCookies(w)
			response.Forbidden(w, "Invalid or expired credential")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	h.issueSession(w, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserClaims(r.Context())

	req := inbound.LogoutRequest{
		RefreshCredential: h.cookies.ReadRefreshToken(r),
	}
	if claims != nil {
		req.UserID = claims.UserID
	}

	if err := h.authUseCase.Logout(r.Context(), req); err != nil {
		response.InternalServerError(w, "Internal server error")
		return
	}

	h.cookies.ClearAuthCookies(w)
	response.WriteJSON(w, http.StatusOK, logoutResponse{
		Success: true,
		Message: "Logged out",
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserClaims(r.Context())
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	profile, err := h.authUseCase.Me(r.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			response.NotFound(w, "User not found")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	response.Success(w, http.StatusOK, "success", profile)
}

// issueSession rotates the CSRF token and re-issues the full cookie set.
func (h *AuthHandler) issueSession(w http.ResponseWriter, result *inbound.LoginResult) {
	csrfToken, err := h.cookies.GenerateCSRFToken()
	if err != nil {
		response.InternalServerError(w, "Internal server error")
		return
	}

	h.cookies.SetAuthCookies(w, result.AccessToken, result.RefreshCredential, csrfToken)

	response.WriteJSON(w, http.StatusOK, sessionResponse{
		Success:   true,
		User:      result.User,
		CSRFToken: csrfToken,
		ExpiresIn: result.ExpiresIn,
	})
}

// deviceFingerprint is a coarse client identifier tied to the stored
// refresh credential: forwarded IP plus user agent.
func deviceFingerprint(r *http.Request) string {
	ip := r.Header.Get("X-Real-IP")
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip = strings.TrimSpace(parts[0])
	}
	if ip == "" {
		ip = r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx != -1 {
			ip = ip[:idx]
		}
	}
	return ip + "|" + r.UserAgent()
}
