package enums

import (
	"fmt"
	"strings"
)

// UserRole is the coarse-grained actor role carried in access tokens.
type UserRole string

const (
	RoleRetailer   UserRole = "retailer"
	RoleWholesaler UserRole = "wholesaler"
	RoleAdmin      UserRole = "admin"
)

var validUserRoles = []UserRole{
	RoleRetailer,
	RoleWholesaler,
	RoleAdmin,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// SelfRegisterable reports whether the role can be chosen at sign-up. Admins are seeded.
func (r UserRole) SelfRegisterable() bool {
	return r == RoleRetailer || r == RoleWholesaler
}

func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
