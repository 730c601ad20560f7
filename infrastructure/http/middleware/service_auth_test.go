package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vantra/vantra/domain/entity"
	"github.com/vantra/vantra/infrastructure/service/identity"
)

func TestServiceAuthAuthenticate(t *testing.T) {
	auth := newTestAuthenticator(t)
	m := NewServiceAuthMiddleware(auth, "trust-service", testLogger())

	var captured *entity.ServiceIdentity
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetServiceIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("NoTokenPassesThrough", func(t *testing.T) {
		captured = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/services", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Status = %d, want 200", rec.Code)
		}
		if captured != nil {
			t.Error("No identity should be attached without a token")
		}
	})

	t.Run("ValidTokenAttachesIdentity", func(t *testing.T) {
		captured = nil
		token, err := auth.GenerateToken("crm-service", "trust-service", 0)
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/services", nil)
		req.Header.Set(identity.HeaderServiceToken, token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Status = %d, want 200", rec.Code)
		}
		if captured == nil || captured.ID != "crm-service" {
			t.Error("Source service identity was not attached")
		}
	})

	t.Run("WrongTargetRejected", func(t *testing.T) {
		token, err := auth.GenerateToken("crm-service", "finance-service", 0)
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/services", nil)
		req.Header.Set(identity.HeaderServiceToken, token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("Status = %d, want 403", rec.Code)
		}
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/services", nil)
		req.Header.Set(identity.HeaderServiceToken, "garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("Status = %d, want 403", rec.Code)
		}
	})

	t.Run("SignedRequestAccepted", func(t *testing.T) {
		body := []byte(`{"id":"reporting-service"}`)
		headers, err := auth.OutboundHeaders("api-gateway", "trust-service", http.MethodPost, "/v1/services", body)
		if err != nil {
			t.Fatalf("Failed to build outbound headers: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/services", bytes.NewReader(body))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Status = %d, want 200", rec.Code)
		}
	})

	t.Run("TamperedBodyRejected", func(t *testing.T) {
		headers, err := auth.OutboundHeaders("api-gateway", "trust-service", http.MethodPost, "/v1/services", []byte(`{"id":"reporting-service"}`))
		if err != nil {
			t.Fatalf("Failed to build outbound headers: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/v1/services", bytes.NewReader([]byte(`{"id":"evil-service"}`)))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("Status = %d, want 403", rec.Code)
		}
	})
}

func TestRequirePermission(t *testing.T) {
	auth := newTestAuthenticator(t)
	m := NewServiceAuthMiddleware(auth, "trust-service", testLogger())

	handler := m.RequirePermission("registry:write")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	withIdentity := func(req *http.Request, svc *entity.ServiceIdentity) *http.Request {
		return req.WithContext(context.WithValue(req.Context(), serviceIdentityKey, svc))
	}

	t.Run("NoIdentity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodPost, "/v1/services", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Status = %d, want 401", rec.Code)
		}
	})

	t.Run("InsufficientGrant", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/services", nil), &entity.ServiceIdentity{
			ID:          "crm-service",
			Permissions: []string{"user:read", "crm:*"},
		})
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("Status = %d, want 403", rec.Code)
		}
	})

	t.Run("CategoryWildcard", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/services", nil), &entity.ServiceIdentity{
			ID:          "admin-console",
			Permissions: []string{"registry:*"},
		})
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Status = %d, want 200", rec.Code)
		}
	})

	t.Run("UniversalWildcard", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/v1/services", nil), &entity.ServiceIdentity{
			ID:          "api-gateway",
			Permissions: []string{"*"},
		})
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("Status = %d, want 200", rec.Code)
		}
	})
}
