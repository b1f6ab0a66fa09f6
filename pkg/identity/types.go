package identity

import "fmt"

// Role is the closed set of dashboard roles
type Role string

const (
	RoleLearner    Role = "learner"
	RoleAdmin      Role = "admin"
	RoleExecutive  Role = "executive"
	RoleCEO        Role = "ceo"
	RoleWorker     Role = "worker"
	RoleFrontliner Role = "frontliner"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole validates a role string against the closed enumeration
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleLearner, RoleAdmin, RoleExecutive, RoleCEO, RoleWorker, RoleFrontliner, RoleSuperAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Identity is the resolved, request-scoped principal derived from a session.
// It is never persisted and never shared across requests.
type Identity struct {
	UserID         string `json:"user_id"`
	ProfileID      string `json:"profile_id"`
	OrganizationID string `json:"organization_id,omitempty"` // empty when the user has no active org
	Role           Role   `json:"role"`
}

// Valid reports whether the identity may be handed to a handler. An identity
// without a user ID must never pass the gate.
func (id *Identity) Valid() bool {
	return id != nil && id.UserID != ""
}

// IsSuperAdmin reports whether the identity carries the super-admin role
func (id *Identity) IsSuperAdmin() bool {
	return id != nil && id.Role == RoleSuperAdmin
}
