package auth

import (
	"fmt"
	"strings"

	"go-ceremony-portal/internal/model"
)

type Resource string

const (
	ResourceUsers     Resource = "users"
	ResourceDiplomas  Resource = "diplomas"
	ResourceGraduates Resource = "graduates"
	ResourceFaculties Resource = "faculties"
	ResourceAudit     Resource = "audit"
	ResourceProfile   Resource = "profile"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ScopeKind is the row filter attached to an allow decision.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota + 1
	ScopeFaculty
	ScopeSelf
)

// Scope restricts an allowed operation to a partition of the data.
type Scope struct {
	Kind        ScopeKind
	FacultyCode string
	StudentID   string
}

func (s Scope) Unrestricted() bool {
	return s.Kind == ScopeAll
}

// Valid reports whether the scope came out of an allow decision. The zero
// Scope is not valid and lists nothing.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeFaculty:
		return s.FacultyCode != ""
	case ScopeSelf:
		return s.StudentID != ""
	}
	return false
}

// Permits is the instance check run after a single record is fetched.
// Faculty codes compare exactly, the same way the list filters do.
func (s Scope) Permits(facultyCode string, studentID string) error {
	switch s.Kind {
	case ScopeAll:
		return nil
	case ScopeFaculty:
		if s.FacultyCode != "" && strings.TrimSpace(facultyCode) == s.FacultyCode {
			return nil
		}
	case ScopeSelf:
		if s.StudentID != "" && strings.TrimSpace(studentID) == s.StudentID {
			return nil
		}
	}
	return model.ErrForbidden
}

// DiplomaFilter converts the scope into a store filter. An invalid scope
// is refused rather than mapped to an empty filter.
func (s Scope) DiplomaFilter() (model.DiplomaFilter, error) {
	if !s.Valid() {
		return model.DiplomaFilter{}, fmt.Errorf("%w: no scope", model.ErrForbidden)
	}
	switch s.Kind {
	case ScopeFaculty:
		return model.DiplomaFilter{FacultyCode: s.FacultyCode}, nil
	case ScopeSelf:
		return model.DiplomaFilter{StudentID: s.StudentID}, nil
	}
	return model.DiplomaFilter{}, nil
}

// Grants maps each role allowed to perform an action to the scope it gets.
type Grants map[model.Role]ScopeKind

// Rules is the central resource/action table. A missing entry denies.
type Rules map[Resource]map[Action]Grants

func DefaultRules() Rules {
	supervisorOnly := Grants{model.RoleSupervisor: ScopeAll}
	staffFaculty := Grants{model.RoleSupervisor: ScopeAll, model.RoleProfessor: ScopeFaculty}

	return Rules{
		ResourceUsers: {
			ActionRead:   supervisorOnly,
			ActionCreate: supervisorOnly,
			ActionUpdate: supervisorOnly,
			ActionDelete: supervisorOnly,
		},
		ResourceDiplomas: {
			ActionRead:   staffFaculty,
			ActionCreate: staffFaculty,
			ActionUpdate: staffFaculty,
			ActionDelete: staffFaculty,
		},
		ResourceGraduates: {
			ActionRead:   staffFaculty,
			ActionCreate: supervisorOnly,
			ActionUpdate: supervisorOnly,
			ActionDelete: supervisorOnly,
		},
		ResourceFaculties: {
			ActionRead:   Grants{model.RoleSupervisor: ScopeAll, model.RoleProfessor: ScopeAll},
			ActionCreate: supervisorOnly,
			ActionUpdate: supervisorOnly,
			ActionDelete: supervisorOnly,
		},
		ResourceAudit: {
			ActionRead: supervisorOnly,
		},
		ResourceProfile: {
			ActionRead: Grants{
				model.RoleSupervisor: ScopeAll,
				model.RoleProfessor:  ScopeFaculty,
				model.RoleGraduate:   ScopeSelf,
			},
		},
	}
}

type Policy struct {
	rules Rules
}

func NewPolicy(rules Rules) *Policy {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Policy{rules: rules}
}

// Authorize decides whether the principal may perform action on resource
// and, if so, under which scope. Denials wrap model.ErrForbidden.
func (p *Policy) Authorize(principal Principal, resource Resource, action Action) (Scope, error) {
	grants, ok := p.rules[resource][action]
	if !ok {
		return Scope{}, fmt.Errorf("%w: no rule for %s %s", model.ErrForbidden, action, resource)
	}

	kind, ok := grants[principal.Role]
	if !ok || !principal.Role.Valid() {
		return Scope{}, fmt.Errorf("%w: role %q may not %s %s", model.ErrForbidden, principal.Role, action, resource)
	}

	switch kind {
	case ScopeFaculty:
		// A faculty-scoped principal without a faculty sees nothing.
		if principal.FacultyCode == "" {
			return Scope{}, fmt.Errorf("%w: principal has no faculty", model.ErrForbidden)
		}
		return Scope{Kind: ScopeFaculty, FacultyCode: principal.FacultyCode}, nil
	case ScopeSelf:
		if principal.StudentID == "" {
			return Scope{}, fmt.Errorf("%w: principal has no student id", model.ErrForbidden)
		}
		return Scope{Kind: ScopeSelf, StudentID: principal.StudentID}, nil
	default:
		return Scope{Kind: ScopeAll}, nil
	}
}

// EnsureNotSelf blocks a principal from deleting its own staff account,
// whatever its role.
func EnsureNotSelf(principal Principal, targetID int64) error {
	if principal.Kind == KindStaff && principal.ID == targetID {
		return model.ErrCannotDeleteSelf
	}
	return nil
}
