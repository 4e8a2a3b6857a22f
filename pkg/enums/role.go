package enums

import "strings"

// Role identifies the class of an authenticated principal.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleDelivery Role = "delivery"
	RoleAdmin    Role = "admin"
	// RoleSystem is used for transitions made by background jobs. It is never issued in a token.
	RoleSystem Role = "system"
)

// loginRoles excludes RoleSystem.
var loginRoles = set[Role]{RoleCustomer, RoleSeller, RoleDelivery, RoleAdmin}

func (r Role) String() string { return string(r) }

// IsValid reports whether r can log in.
func (r Role) IsValid() bool { return loginRoles.has(r) }

// ParseRole is case-insensitive and trims surrounding space.
func ParseRole(value string) (Role, error) {
	return loginRoles.parse("role", strings.ToLower(strings.TrimSpace(value)))
}
