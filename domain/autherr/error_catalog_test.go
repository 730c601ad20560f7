package autherr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestGetHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"MissingCredential", ErrMissingCredential("no header"), http.StatusUnauthorized},
		{"InvalidSignature", ErrInvalidSignature("hmac mismatch"), http.StatusForbidden},
		{"Expired", ErrExpired("exp in the past"), http.StatusForbidden},
		{"WrongTarget", ErrWrongTarget("minted for crm"), http.StatusForbidden},
		{"ReplayedNonce", ErrReplayedNonce("seen before"), http.StatusForbidden},
		{"UnknownPrincipal", ErrUnknownPrincipal("ghost-service"), http.StatusForbidden},
		{"InsufficientPermission", ErrInsufficientPermission("registry:write"), http.StatusForbidden},
		{"CSRFMismatch", ErrCSRFMismatch("header absent"), http.StatusForbidden},
		{"Configuration", ErrConfigurationError("ACCESS_TOKEN_SECRET"), http.StatusInternalServerError},
		{"PlainError", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("GetHTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewAppError(ErrCodeInvalidSignature, "Invalid or expired credential", "", cause)

	if !errors.Is(err, cause) {
		t.Error("AppError should unwrap to its cause")
	}

	wrapped := fmt.Errorf("verify: %w", err)
	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should find the AppError through wrapping")
	}
	if appErr.Code != ErrCodeInvalidSignature {
		t.Errorf("Code = %s, want %s", appErr.Code, ErrCodeInvalidSignature)
	}
}

func TestClientMessagesStayGeneric(t *testing.T) {
	// Every rejection of a presented credential reads the same to the
	// caller; the distinguishing detail lives in Details for logs only.
	rejections := []*AppError{
		ErrMalformedCredential("bad base64"),
		ErrInvalidSignature("hmac mismatch"),
		ErrExpired("exp in the past"),
		ErrWrongTarget("minted for crm"),
		ErrWrongTokenType("special token on access path"),
		ErrReplayedNonce("seen before"),
		ErrUnknownPrincipal("ghost-service"),
	}

	for _, rej := range rejections {
		if rej.Message != "Invalid or expired credential" {
			t.Errorf("%s message = %q, must stay generic", rej.Code, rej.Message)
		}
	}
}

func TestClientCodeCollapsesRejections(t *testing.T) {
	// The per-class verification code is internal; every rejection of a
	// presented credential serializes to the same wire code.
	rejections := []*AppError{
		ErrMalformedCredential("bad base64"),
		ErrInvalidSignature("hmac mismatch"),
		ErrExpired("exp in the past"),
		ErrWrongTarget("minted for crm"),
		ErrWrongTokenType("special token on access path"),
		ErrReplayedNonce("seen before"),
		ErrUnknownPrincipal("ghost-service"),
	}

	for _, rej := range rejections {
		if got := rej.ClientCode(); got != ErrCodeCredentialRejected {
			t.Errorf("%s ClientCode() = %s, want %s", rej.Code, got, ErrCodeCredentialRejected)
		}
	}

	// Codes that do not describe a verification failure pass through.
	passthrough := []*AppError{
		ErrMissingCredential("no header"),
		ErrInsufficientPermission("registry:write"),
		ErrCSRFMismatch("header absent"),
		ErrConfigurationError("ACCESS_TOKEN_SECRET"),
	}
	for _, e := range passthrough {
		if got := e.ClientCode(); got != e.Code {
			t.Errorf("%s ClientCode() = %s, want the code unchanged", e.Code, got)
		}
	}
}
