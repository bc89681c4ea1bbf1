package models

import "github.com/google/uuid"

// Roles recognized by the core. Session handling lives outside; the core
// only ever sees an authenticated id + role pair.
const (
	RoleCustomer = "customer"
	RoleWorker   = "worker"
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

// IsAdmin reports whether the actor may bypass ownership checks.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsStaff reports whether the actor acts on behalf of the platform or a
// shop rather than as a customer or worker.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleOwner
}
