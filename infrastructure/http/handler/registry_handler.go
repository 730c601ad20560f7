package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
	"github.com/vantra/vantra/infrastructure/http/response"
	"github.com/vantra/vantra/infrastructure/http/validator"
)

// RegistryHandler exposes the administrative surface of the service
// registry. Registration is the only mutation path after startup and
// is gated on the registry:write service permission by the router.
type RegistryHandler struct {
	registry outbound.ServiceRegistry
}

func NewRegistryHandler(registry outbound.ServiceRegistry) *RegistryHandler {
	return &RegistryHandler{
		registry: registry,
	}
}

func (h *RegistryHandler) List(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "success", h.registry.List())
}

func (h *RegistryHandler) Register(w http.ResponseWriter, r *http.Request) {
	var identity entity.ServiceIdentity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(identity.ID) {
		response.UnprocessableEntity(w, "Service id is required")
		return
	}

	if err := h.registry.Register(&identity); err != nil {
		switch {
		case errors.Is(err, outbound.ErrServiceAlreadyExists):
			response.Conflict(w, "Service already registered")
		default:
			response.InternalServerError(w, "Internal server error")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Service registered", identity)
}
