package model

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// Role is the closed set of principal roles. Raw role strings are parsed once
// with ParseRole where they enter the process and never compared downstream.
type Role string

const (
	RoleUnknown    Role = ""
	RoleSupervisor Role = "Supervisor"
	RoleProfessor  Role = "Professor"
	RoleGraduate   Role = "Graduate"
)

// Keys are already case-folded.
var roleAliases = map[string]Role{
	"supervisor": RoleSupervisor,
	"admin":      RoleSupervisor,
	"professor":  RoleProfessor,
	"graduate":   RoleGraduate,
}

// ParseRole normalizes a stored or transmitted role string. The legacy
// "admin" value maps to Supervisor; anything unrecognized is RoleUnknown.
func ParseRole(raw string) Role {
	// A Caser is stateful, so each call gets its own.
	key := cases.Fold().String(strings.TrimSpace(raw))
	if role, ok := roleAliases[key]; ok {
		return role
	}
	return RoleUnknown
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	return r != RoleUnknown
}

// IsStaff reports whether the role belongs to a staff account.
func (r Role) IsStaff() bool {
	return r == RoleSupervisor || r == RoleProfessor
}

// FacultyScoped reports whether the role only sees rows of its own faculty.
func (r Role) FacultyScoped() bool {
	return r == RoleProfessor
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ParseRole(raw)
	return nil
}
