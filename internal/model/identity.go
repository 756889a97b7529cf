package model

import "github.com/google/uuid"

// Role is the authenticated caller's platform role.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Identity is the authenticated caller, resolved at the HTTP boundary and
// passed explicitly into every order and payment operation. The core trusts
// it and performs no credential verification itself.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
