package enums

import (
	"fmt"
	"strings"
)

// UserRole is the closed set of platform roles carried on every account and token.
type UserRole string

const (
	UserRoleAnonymous     UserRole = "ANONYMOUS"
	UserRoleAuthenticated UserRole = "AUTHENTICATED"
	UserRoleManager       UserRole = "MANAGER"
	UserRoleAdmin         UserRole = "ADMIN"
)

var validUserRoles = []UserRole{
	UserRoleAnonymous,
	UserRoleAuthenticated,
	UserRoleManager,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role may manage other accounts.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleManager
}

// ParseUserRole converts raw input into a UserRole. Matching ignores case.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// UserRoles returns every known role in declaration order.
func UserRoles() []UserRole {
	return append([]UserRole(nil), validUserRoles...)
}
