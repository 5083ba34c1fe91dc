package enums

import "fmt"

// Role identifies which kind of person is acting on the wishlist.
type Role string

const (
	RoleParent       Role = "parent"
	RoleChild        Role = "child"
	RoleFamilyMember Role = "family_member"
)

var validRoles = []Role{
	RoleParent,
	RoleChild,
	RoleFamilyMember,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
