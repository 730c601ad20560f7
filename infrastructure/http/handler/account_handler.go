package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vantra/vantra/application/port/inbound"
	"github.com/vantra/vantra/application/usecase"
	"github.com/vantra/vantra/infrastructure/http/response"
	"github.com/vantra/vantra/infrastructure/http/validator"
)

// Mailer hands minted special tokens to the notification pipeline. The
// trust service does not send mail itself.
type Mailer interface {
	SendPasswordReset(email, token string) error
}

type AccountHandler struct {
	accountUseCase inbound.AccountUseCase
	mailer         Mailer
}

func NewAccountHandler(accountUseCase inbound.AccountUseCase, mailer Mailer) *AccountHandler {
	return &AccountHandler{
		accountUseCase: accountUseCase,
		mailer:         mailer,
	}
}

func (h *AccountHandler) InitiatePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req inbound.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.UnprocessableEntity(w, "Invalid email format")
		return
	}

	token, err := h.accountUseCase.InitiatePasswordReset(r.Context(), req)
	if err != nil {
		response.InternalServerError(w, "Internal server error")
		return
	}

	if token != "" && h.mailer != nil {
		if err := h.mailer.SendPasswordReset(req.Email, token); err != nil {
			response.InternalServerError(w, "Internal server error")
			return
		}
	}

	// Same response whether or not the email exists.
	response.Success(w, http.StatusOK, "If the email exists, a reset link has been sent", nil)
}

func (h *AccountHandler) CompletePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req inbound.PasswordResetComplete
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(req.Token) {
		response.UnprocessableEntity(w, "Token is required")
		return
	}
	if !validator.ValidatePassword(req.NewPassword) {
		response.UnprocessableEntity(w, "Password does not meet requirements")
		return
	}

	if err := h.accountUseCase.CompletePasswordReset(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidSpecialToken):
			response.Forbidden(w, "Invalid or expired credential")
		case errors.Is(err, usecase.ErrWeakPassword):
			response.UnprocessableEntity(w, "Password does not meet requirements")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	response.Success(w, http.StatusOK, "Password updated", nil)
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req inbound.EmailVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(req.Token) {
		response.UnprocessableEntity(w, "Token is required")
		return
	}

	if err := h.accountUseCase.VerifyEmail(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidSpecialToken):
			response.Forbidden(w, "Invalid or expired credential")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	response.Success(w, http.StatusOK, "Email verified", nil)
}
