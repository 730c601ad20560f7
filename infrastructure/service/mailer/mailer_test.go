package mailer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vantra/vantra/infrastructure/service/logger"
)

func testLogger() logger.Logger {
	return logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       "fatal",
		Format:      "json",
		ServiceName: "test",
	})
}

func TestWebhookMailer(t *testing.T) {
	t.Run("DeliversPayload", func(t *testing.T) {
		var received map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Method = %s, want POST", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("Failed to decode payload: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		m := NewWebhookMailer(server.URL, testLogger())
		if err := m.SendPasswordReset("user@example.com", "reset-token-1"); err != nil {
			t.Fatalf("SendPasswordReset failed: %v", err)
		}

		if received["type"] != "password_reset" {
			t.Errorf("type = %q, want password_reset", received["type"])
		}
		if received["email"] != "user@example.com" {
			t.Errorf("email = %q, want user@example.com", received["email"])
		}
		if received["token"] != "reset-token-1" {
			t.Errorf("token = %q, want reset-token-1", received["token"])
		}
	})

	t.Run("EndpointFailureSurfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		m := NewWebhookMailer(server.URL, testLogger())
		if err := m.SendPasswordReset("user@example.com", "reset-token-2"); err == nil {
			t.Error("A non-2xx endpoint response must surface as an error")
		}
	})

	t.Run("UnreachableEndpointSurfaces", func(t *testing.T) {
		m := NewWebhookMailer("http://127.0.0.1:1/notify", testLogger())
		if err := m.SendPasswordReset("user@example.com", "reset-token-3"); err == nil {
			t.Error("An unreachable endpoint must surface as an error")
		}
	})
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer(testLogger())
	if err := m.SendPasswordReset("user@example.com", "reset-token-4"); err != nil {
		t.Errorf("LogMailer must never fail: %v", err)
	}
}
