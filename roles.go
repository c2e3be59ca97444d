package auth

import (
	"sort"
	"strings"
)

// Role is an authority tag granting access to specific endpoints. The set is
// closed; free form role strings from the wire that do not parse are dropped
// at the codec boundary.
type Role string

const (
	// RoleCustomer is the default role for every self registered account
	RoleCustomer Role = "ROLE_CUSTOMER"
	// RoleRestaurantOwner manages restaurants, menus and incoming orders
	RoleRestaurantOwner Role = "ROLE_RESTAURANT_OWNER"
	// RoleAdmin is the platform operator role
	RoleAdmin Role = "ROLE_ADMIN"
)

// AdminSurfaceRoles are the roles allowed through the administrative sign in.
// A customer can hold a perfectly valid session and still be denied here.
func AdminSurfaceRoles() []Role {
	return []Role{RoleRestaurantOwner, RoleAdmin}
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleRestaurantOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a wire string into a Role
func ParseRole(s string) (Role, bool) {
	role := Role(strings.TrimSpace(s))
	return role, role.IsValid()
}

// AllRoles returns the closed role set
func AllRoles() []Role {
	return []Role{RoleCustomer, RoleRestaurantOwner, RoleAdmin}
}

// JoinAuthorities renders a role set as the comma joined authorities claim.
// The output is de-duplicated and lexicographically ordered so the same set
// always serializes to the same bytes, which keeps token signing
// deterministic for a given instant.
func JoinAuthorities(roles []Role) string {
	if len(roles) == 0 {
		return ""
	}

	seen := make(map[Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if !role.IsValid() {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		names = append(names, string(role))
	}

	sort.Strings(names)
	return strings.Join(names, ",")
}

// SplitAuthorities parses the comma joined authorities claim back into a
// role set. Unknown tokens and empty segments are skipped rather than
// rejected so a token minted with a newer role vocabulary still verifies.
func SplitAuthorities(s string) []Role {
	if s == "" {
		return nil
	}

	var roles []Role
	seen := make(map[Role]struct{})
	for _, part := range strings.Split(s, ",") {
		role, ok := ParseRole(part)
		if !ok {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}

	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}
