package model

import (
	"fmt"
	"strings"
	"time"
)

type Permissions struct {
	ManageUndergrad bool `json:"can_manage_undergrad_level"`
	ManageGraduate  bool `json:"can_manage_graduate_level"`
}

// StaffUser is a Supervisor or Professor account.
type StaffUser struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         Role        `json:"role"`
	FacultyCode  *string     `json:"faculty_code"`
	Permissions  Permissions `json:"permissions"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Normalize enforces the role invariants: a Professor must carry a faculty
// code, a Supervisor carries none and has both management flags cleared.
func (u *StaffUser) Normalize() error {
	switch u.Role {
	case RoleSupervisor:
		u.FacultyCode = nil
		u.Permissions = Permissions{}
	case RoleProfessor:
		if u.FacultyCode == nil || strings.TrimSpace(*u.FacultyCode) == "" {
			return fmt.Errorf("%w: faculty_code is required for role %s", ErrInvalidInput, u.Role)
		}
		code := strings.TrimSpace(*u.FacultyCode)
		u.FacultyCode = &code
	default:
		return fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	return nil
}

// Faculty returns the faculty code or "" when unset.
func (u StaffUser) Faculty() string {
	if u.FacultyCode == nil {
		return ""
	}
	return *u.FacultyCode
}

// Graduate is a ceremony attendee. Its login secret is the citizen ID or
// passport number stored on the record itself.
type Graduate struct {
	ID          int64  `json:"id"`
	StudentID   string `json:"student_id"`
	CitizenID   string `json:"-"`
	PassportNo  string `json:"-"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FacultyCode string `json:"faculty_code"`
}
