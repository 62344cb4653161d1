package domain

import "fmt"

// Role is the closed set of platform roles. Authorization decisions across
// the platform key off this value, so it only ever enters the system through
// ParseRole.
type Role string

const (
	RoleStudent Role = "student"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = RoleStudent

// ParseRole maps a raw string onto the closed role set. Empty input yields
// the default role; anything else unknown is rejected.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return DefaultRole, nil
	case RoleStudent, RoleAnalyst, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAnalyst, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
