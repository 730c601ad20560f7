package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
)

func TestStaticRegistryDefaults(t *testing.T) {
	r := NewStaticRegistry()

	gateway, err := r.Find("api-gateway")
	if err != nil {
		t.Fatalf("Failed to find api-gateway: %v", err)
	}
	if !gateway.HasPermission("anything:at-all") {
		t.Error("Gateway should hold the universal grant")
	}

	if _, err := r.Find("no-such-service"); !errors.Is(err, outbound.ErrServiceNotFound) {
		t.Errorf("Find unknown = %v, want ErrServiceNotFound", err)
	}

	if len(r.List()) == 0 {
		t.Error("Default registry should not be empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "services.json")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write registry file: %v", err)
		}
		return path
	}

	t.Run("Valid", func(t *testing.T) {
		path := writeFile(t, `{"services": [
			{"id": "billing-service", "name": "Billing", "permissions": ["finance:*"]},
			{"id": "mailer", "name": "Mailer", "permissions": ["notification:send"]}
		]}`)

		r, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile failed: %v", err)
		}

		billing, err := r.Find("billing-service")
		if err != nil {
			t.Fatalf("Failed to find billing-service: %v", err)
		}
		if !billing.HasPermission("finance:invoice") {
			t.Error("Billing should hold the finance category grant")
		}

		// A file replaces the defaults entirely.
		if _, err := r.Find("api-gateway"); err == nil {
			t.Error("File-loaded registry should not contain compiled-in defaults")
		}
	})

	t.Run("MissingID", func(t *testing.T) {
		path := writeFile(t, `{"services": [{"name": "Nameless", "permissions": []}]}`)
		if _, err := LoadFromFile(path); err == nil {
			t.Error("Entry without an id must be rejected")
		}
	})

	t.Run("DuplicateID", func(t *testing.T) {
		path := writeFile(t, `{"services": [
			{"id": "dup", "name": "One", "permissions": []},
			{"id": "dup", "name": "Two", "permissions": []}
		]}`)
		if _, err := LoadFromFile(path); err == nil {
			t.Error("Duplicate ids must be rejected")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("Missing file must be an error")
		}
	})
}

func TestRegister(t *testing.T) {
	r := NewStaticRegistry()

	svc := &entity.ServiceIdentity{ID: "reporting-service", Name: "Reporting", Permissions: []string{"metrics:read"}}
	if err := r.Register(svc); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	found, err := r.Find("reporting-service")
	if err != nil {
		t.Fatalf("Failed to find registered service: %v", err)
	}
	if found.Name != "Reporting" {
		t.Errorf("Name = %q, want Reporting", found.Name)
	}

	if err := r.Register(svc); !errors.Is(err, outbound.ErrServiceAlreadyExists) {
		t.Errorf("Re-register = %v, want ErrServiceAlreadyExists", err)
	}

	if err := r.Register(&entity.ServiceIdentity{Name: "No ID"}); err == nil {
		t.Error("Register without an id must fail")
	}
}
