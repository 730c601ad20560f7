package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
)

// StaticRegistry holds the platform's service identities. Entries are
// loaded once at startup from a JSON file or the compiled-in defaults;
// after that the only mutation path is an explicit Register call.
type StaticRegistry struct {
	mu       sync.RWMutex
	services map[string]*entity.ServiceIdentity
}

type registryFile struct {
	Services []*entity.ServiceIdentity `json:"services"`
}

// defaultServices mirrors the platform's deployed topology.
func defaultServices() []*entity.ServiceIdentity {
	return []*entity.ServiceIdentity{
		{ID: "api-gateway", Name: "API Gateway", Permissions: []string{"*"}},
		{ID: "trust-service", Name: "Trust Service", Permissions: []string{"user:*", "registry:read"}},
		{ID: "crm-service", Name: "CRM Service", Permissions: []string{"user:read", "crm:*"}},
		{ID: "finance-service", Name: "Finance Service", Permissions: []string{"finance:*", "user:read"}},
		{ID: "notification-service", Name: "Notification Service", Permissions: []string{"notification:*"}},
	}
}

// NewStaticRegistry builds a registry from the compiled-in defaults.
func NewStaticRegistry() *StaticRegistry {
	r := &StaticRegistry{services: make(map[string]*entity.ServiceIdentity)}
	for _, svc := range defaultServices() {
		r.services[svc.ID] = svc
	}
	return r
}

// LoadFromFile builds a registry from a JSON file of the form
// {"services": [{"id": ..., "name": ..., "permissions": [...]}]}.
func LoadFromFile(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service registry file: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse service registry file: %w", err)
	}

	r := &StaticRegistry{services: make(map[string]*entity.ServiceIdentity, len(file.Services))}
	for _, svc := range file.Services {
		if svc.ID == "" {
			return nil, fmt.Errorf("service registry entry without an id")
		}
		if _, exists := r.services[svc.ID]; exists {
			return nil, fmt.Errorf("duplicate service registry entry: %s", svc.ID)
		}
		r.services[svc.ID] = svc
	}

	return r, nil
}

func (r *StaticRegistry) Find(serviceID string) (*entity.ServiceIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	svc, ok := r.services[serviceID]
	if !ok {
		return nil, outbound.ErrServiceNotFound
	}
	return svc, nil
}

func (r *StaticRegistry) List() []*entity.ServiceIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*entity.ServiceIdentity, 0, len(r.services))
	for _, svc := range r.services {
		list = append(list, svc)
	}
	return list
}

// Register adds a new identity. Existing entries are never overwritten.
func (r *StaticRegistry) Register(identity *entity.ServiceIdentity) error {
	if identity == nil || identity.ID == "" {
		return fmt.Errorf("service identity requires an id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[identity.ID]; exists {
		return outbound.ErrServiceAlreadyExists
	}
	r.services[identity.ID] = identity
	return nil
}
