// Copyright (c) 2026 OpenShelf. All rights reserved.

package sec

// # User Roles

// Role represents the authorization level derived from a library profile.
//
// OpenShelf deliberately keeps the hierarchy flat: a member can borrow and
// reserve, an admin additionally manages the catalog and other members.
type Role string

const (
	// Unrestricted system access: catalog management, member administration
	RoleAdmin Role = "admin"

	// Default role for registered library members
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r Role) level() int {

	// Linear scale leaves room for future intermediate roles (e.g. librarian)
	switch r {
	case RoleAdmin:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}
