package entity

import (
	"strings"
)

// PermissionAll grants every permission. A category wildcard such as
// "user:*" grants every action within that category.
const PermissionAll = "*"

// ServiceIdentity is a static registry entry describing one backend
// service and the capabilities it is allowed to exercise.
type ServiceIdentity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the identity holds the given permission,
// through the universal wildcard, an exact grant, or a category wildcard.
func (s *ServiceIdentity) HasPermission(permission string) bool {
	for _, granted := range s.Permissions {
		if granted == PermissionAll || granted == permission {
			return true
		}
		if category, ok := strings.CutSuffix(granted, ":*"); ok {
			if strings.HasPrefix(permission, category+":") {
				return true
			}
		}
	}
	return false
}
