package outbound

import (
	"errors"

	"github.com/vantra/vantra/domain/entity"
)

var (
	ErrServiceNotFound      = errors.New("service not found in registry")
	ErrServiceAlreadyExists = errors.New("service already registered")
)

// ServiceRegistry resolves machine principals. Entries are loaded at
// process start and immutable afterwards apart from Register.
type ServiceRegistry interface {
	Find(serviceID string) (*entity.ServiceIdentity, error)
	List() []*entity.ServiceIdentity
	Register(identity *entity.ServiceIdentity) error
}
