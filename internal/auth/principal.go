// Package auth holds the token-based authentication and role-based
// authorization core: credential verification, token issuing, per-request
// session resolution and the central authorization policy.
package auth

import (
	"strconv"

	"go-ceremony-portal/internal/model"
)

// Kind tells which store a principal lives in. Staff and graduate IDs come
// from different tables, so a token carries the kind next to the ID.
type Kind string

const (
	KindStaff    Kind = "staff"
	KindGraduate Kind = "graduate"
)

// Principal is the actor behind a request, rebuilt from the store on every
// request and never persisted.
type Principal struct {
	Kind        Kind
	ID          int64
	Name        string
	Role        model.Role
	FacultyCode string
	StudentID   string
	Permissions model.Permissions
}

func StaffPrincipal(u model.StaffUser) Principal {
	return Principal{
		Kind:        KindStaff,
		ID:          u.ID,
		Name:        u.Username,
		Role:        u.Role,
		FacultyCode: u.Faculty(),
		Permissions: u.Permissions,
	}
}

// GraduatePrincipal always carries the Graduate role; graduate records have
// no role column.
func GraduatePrincipal(g model.Graduate) Principal {
	return Principal{
		Kind:        KindGraduate,
		ID:          g.ID,
		Name:        g.StudentID,
		Role:        model.RoleGraduate,
		FacultyCode: g.FacultyCode,
		StudentID:   g.StudentID,
	}
}

func (p Principal) Subject() string {
	return strconv.FormatInt(p.ID, 10)
}

func (p Principal) AuthUser() model.AuthUser {
	return model.AuthUser{ID: p.ID, Username: p.Name, Role: p.Role}
}
