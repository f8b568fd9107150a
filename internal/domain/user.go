package domain

import "slices"

// Role is the role string of a responder.
type Role string

// Roles.
const (
	RoleViewer    Role = "viewer"
	RoleResponder Role = "responder"
	RoleAdmin     Role = "admin"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	return r == RoleViewer || r == RoleResponder || r == RoleAdmin
}

// In reports whether the role is one of roles.
func (r Role) In(roles ...Role) bool {
	return slices.Contains(roles, r)
}

// CanManageIncidents reports whether the role may mutate incidents and comments.
func (r Role) CanManageIncidents() bool {
	return r.In(RoleResponder, RoleAdmin)
}

// CanManageServices reports whether the role may mutate the service catalog.
func (r Role) CanManageServices() bool {
	return r == RoleAdmin
}

// User is a responder known to the system.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Team   string `json:"team"`
	OnCall bool   `json:"onCall"`
}
