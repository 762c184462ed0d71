package auth

import "fmt"

// Role is the access level carried in a token. The ledger knows three:
// viewers read, operators write, admins additionally trigger exports and
// full recurrence sweeps.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleOrder = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// ParseRole validates a role string from a token claim.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	if _, known := roleOrder[role]; !known {
		return "", fmt.Errorf("auth: unknown role %q", value)
	}
	return role, nil
}

// Allows reports whether the role meets the required level. An unknown
// role allows nothing.
func (r Role) Allows(required Role) bool {
	return roleOrder[r] >= roleOrder[required] && roleOrder[r] > 0
}
