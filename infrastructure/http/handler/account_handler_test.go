package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vantra/vantra/application/port/inbound"
	"github.com/vantra/vantra/infrastructure/http/handler"
)

var errDeliveryFailed = errors.New("delivery failed")

type stubAccountUseCase struct {
	resetToken string
}

func (s *stubAccountUseCase) InitiatePasswordReset(ctx context.Context, req inbound.PasswordResetRequest) (string, error) {
	return s.resetToken, nil
}

func (s *stubAccountUseCase) CompletePasswordReset(ctx context.Context, req inbound.PasswordResetComplete) error {
	return nil
}

func (s *stubAccountUseCase) VerifyEmail(ctx context.Context, req inbound.EmailVerificationRequest) error {
	return nil
}

type capturingMailer struct {
	email string
	token string
	fail  error
}

func (m *capturingMailer) SendPasswordReset(email, token string) error {
	m.email = email
	m.token = token
	return m.fail
}

func TestInitiatePasswordResetHandler(t *testing.T) {
	t.Run("MintedTokenReachesMailer", func(t *testing.T) {
		mail := &capturingMailer{}
		h := handler.NewAccountHandler(&stubAccountUseCase{resetToken: "reset-token-1"}, mail)

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/password-reset",
			strings.NewReader(`{"email":"user@example.com"}`))
		rec := httptest.NewRecorder()
		h.InitiatePasswordReset(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", rec.Code)
		}
		if mail.email != "user@example.com" || mail.token != "reset-token-1" {
			t.Errorf("Mailer received (%q, %q), want the request email and the minted token",
				mail.email, mail.token)
		}
		if strings.Contains(rec.Body.String(), "reset-token-1") {
			t.Error("The reset token must not appear in the response body")
		}
	})

	t.Run("UnknownEmailSendsNothing", func(t *testing.T) {
		mail := &capturingMailer{}
		h := handler.NewAccountHandler(&stubAccountUseCase{resetToken: ""}, mail)

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/password-reset",
			strings.NewReader(`{"email":"ghost@example.com"}`))
		rec := httptest.NewRecorder()
		h.InitiatePasswordReset(rec, req)

		// Same response as the known-email case.
		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", rec.Code)
		}
		if mail.token != "" {
			t.Error("No mail should be dispatched for an unknown email")
		}
	})

	t.Run("MailerFailureSurfaces", func(t *testing.T) {
		mail := &capturingMailer{fail: errDeliveryFailed}
		h := handler.NewAccountHandler(&stubAccountUseCase{resetToken: "reset-token-2"}, mail)

		req := httptest.NewRequest(http.MethodPost, "/v1/auth/password-reset",
			strings.NewReader(`{"email":"user@example.com"}`))
		rec := httptest.NewRecorder()
		h.InitiatePasswordReset(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want 500", rec.Code)
		}
	})
}
