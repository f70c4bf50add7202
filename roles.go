package auth

import (
	"encoding/json"
	"slices"
	"strings"
)

// RoleName is a named role. Names are stored upper case.
type RoleName string

const (
	RoleAdmin    RoleName = "ADMIN"
	RoleManager  RoleName = "MANAGER"
	RoleEmployee RoleName = "EMPLOYEE"
)

// AuthorityPrefix is prepended to role names to build authorities
const AuthorityPrefix = "ROLE_"

// NormalizeRole upper cases and trims a role name
func NormalizeRole(role string) RoleName {
	return RoleName(strings.ToUpper(strings.TrimSpace(role)))
}

// IsValid checks if the role is one of the predefined roles
func (r RoleName) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// Authority returns the authority string granted by this role
func (r RoleName) Authority() string {
	return AuthorityPrefix + string(r)
}

func (r RoleName) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles, most privileged first
func GetAllRoles() []RoleName {
	return []RoleName{
		RoleAdmin,
		RoleManager,
		RoleEmployee,
	}
}

// ParseRole safely parses a string into a RoleName
func ParseRole(roleStr string) (RoleName, bool) {
	role := NormalizeRole(roleStr)
	return role, role.IsValid()
}

// RoleSet is the set of roles owned by a principal
type RoleSet map[RoleName]struct{}

// NewRoleSet builds a set from role names, normalizing each one.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		role := NormalizeRole(name)
		if role == "" {
			continue
		}
		set[role] = struct{}{}
	}
	return set
}

// Add inserts a role
func (s RoleSet) Add(role RoleName) RoleSet {
	if s == nil {
		s = RoleSet{}
	}
	s[NormalizeRole(string(role))] = struct{}{}
	return s
}

// Has checks membership ignoring case
func (s RoleSet) Has(role string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[NormalizeRole(role)]
	return ok
}

// HasAny is true when at least one of roles is in the set
func (s RoleSet) HasAny(roles ...string) bool {
	for _, role := range roles {
		if s.Has(role) {
			return true
		}
	}
	return false
}

// Names returns the sorted role names
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for role := range s {
		out = append(out, string(role))
	}
	slices.Sort(out)
	return out
}

// Authorities returns "ROLE_"+name for every role, sorted.
func (s RoleSet) Authorities() []string {
	names := s.Names()
	for i, name := range names {
		names[i] = AuthorityPrefix + name
	}
	return names
}

// MarshalJSON emits the set as a sorted array of names.
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON accepts an array of role names.
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewRoleSet(names...)
	return nil
}
