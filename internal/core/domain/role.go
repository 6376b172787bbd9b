package domain

import (
	"fmt"
	"strings"
)

// Role identifies a privilege level. Roles form a total order; a route that
// requires a minimum role admits every role above it as well.
type Role string

const (
	RoleUser       Role = "USER"
	RoleModerator  Role = "MODERATOR"
	RoleSupervisor Role = "SUPERVISOR"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
)

// roleRank defines the hierarchy: USER < MODERATOR < SUPERVISOR < MANAGER < ADMIN.
var roleRank = map[Role]int{
	RoleUser:       0,
	RoleModerator:  1,
	RoleSupervisor: 2,
	RoleManager:    3,
	RoleAdmin:      4,
}

// Roles returns all roles in ascending privilege order.
func Roles() []Role {
	return []Role{RoleUser, RoleModerator, RoleSupervisor, RoleManager, RoleAdmin}
}

// Valid reports whether the role is one of the known role identifiers.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role sits at or above min in the hierarchy.
// Unknown roles never satisfy any minimum.
func (r Role) AtLeast(min Role) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	mr, ok := roleRank[min]
	if !ok {
		return false
	}
	return rr >= mr
}

// ParseRole converts a role name into a Role. It accepts both the canonical
// form ("ADMIN") and the legacy prefixed form ("ROLE_ADMIN") carried by tokens
// issued before the claim format was cleaned up.
func ParseRole(s string) (Role, error) {
	name := strings.TrimPrefix(strings.TrimSpace(s), "ROLE_")
	r := Role(strings.ToUpper(name))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// ParseAuthorities parses the "roles" token claim. New tokens carry a single
// role name, but tokens issued by the previous service serialized the
// authority list verbatim ("[ROLE_USER]"), so brackets are stripped and the
// remainder split on commas. Unknown entries are dropped.
func ParseAuthorities(claim string) []Role {
	cleaned := strings.NewReplacer("[", "", "]", "").Replace(claim)

	var roles []Role
	for _, part := range strings.Split(cleaned, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			continue
		}
		roles = append(roles, r)
	}
	return roles
}
