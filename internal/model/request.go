package model

import "time"

type StaffLoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// GraduateLoginRequest accepts both the documented field names and the
// username/password pair the login form posts.
type GraduateLoginRequest struct {
	StudentID string `json:"student_id"`
	Secret    string `json:"secret"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

func (r GraduateLoginRequest) Credentials() (string, string) {
	studentID := r.StudentID
	if studentID == "" {
		studentID = r.Username
	}
	secret := r.Secret
	if secret == "" {
		secret = r.Password
	}
	return studentID, secret
}

type CreateUserRequest struct {
	Username        string  `json:"username" validate:"required,max=100"`
	Password        string  `json:"password" validate:"required,min=8"`
	FirstName       string  `json:"first_name" validate:"max=200"`
	LastName        string  `json:"last_name" validate:"max=200"`
	Role            Role    `json:"role" validate:"required"`
	FacultyCode     *string `json:"faculty_code"`
	ManageUndergrad bool    `json:"can_manage_undergrad_level"`
	ManageGraduate  bool    `json:"can_manage_graduate_level"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	FirstName       *string `json:"first_name" validate:"omitempty,max=200"`
	LastName        *string `json:"last_name" validate:"omitempty,max=200"`
	Role            *Role   `json:"role"`
	Password        *string `json:"password" validate:"omitempty,min=8"`
	FacultyCode     *string `json:"faculty_code"`
	ManageUndergrad *bool   `json:"can_manage_undergrad_level"`
	ManageGraduate  *bool   `json:"can_manage_graduate_level"`
}

type CreateDiplomaRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	GraduateID  *int64 `json:"graduate_id"`
	FacultyCode string `json:"faculty_code" validate:"required"`
	DegreeTH    string `json:"degree_th"`
	DegreeEN    string `json:"degree_en"`
	MajorTH     string `json:"major_th"`
	MajorEN     string `json:"major_en"`
	Honor       string `json:"honor"`
	GradYear    int    `json:"grad_year" validate:"gte=0"`
	OrderNo     int    `json:"order_no" validate:"gte=0"`
}

type UpdateDiplomaRequest struct {
	FacultyCode  *string `json:"faculty_code"`
	DegreeTH     *string `json:"degree_th"`
	DegreeEN     *string `json:"degree_en"`
	MajorTH      *string `json:"major_th"`
	MajorEN      *string `json:"major_en"`
	Honor        *string `json:"honor"`
	GradYear     *int    `json:"grad_year" validate:"omitempty,gte=0"`
	OrderNo      *int    `json:"order_no" validate:"omitempty,gte=0"`
	FirstAttend  *bool   `json:"first_attend"`
	SecondAttend *bool   `json:"second_attend"`
	ExtraAttend  *bool   `json:"extra_attend"`
}

type GraduateRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	CitizenID   string `json:"citizen_id"`
	PassportNo  string `json:"passport_no"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FacultyCode string `json:"faculty_code" validate:"required"`
}

type UpdateGraduateRequest struct {
	CitizenID   *string `json:"citizen_id"`
	PassportNo  *string `json:"passport_no"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	FacultyCode *string `json:"faculty_code" validate:"omitempty,min=1"`
}

type FacultyRequest struct {
	FacultyCode string `json:"faculty_code" validate:"required,max=20"`
	FacultyName string `json:"faculty_name" validate:"required,max=200"`
}

type AuditActor struct {
	PrincipalID int64  `json:"principal_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        Role   `json:"role,omitempty"`
	IP          string `json:"ip,omitempty"`
}

type AuditEntry struct {
	Action     string     `json:"action"`
	OccurredAt string     `json:"occurred_at"`
	Actor      AuditActor `json:"actor"`
	Status     string     `json:"status"`
	Resource   string     `json:"resource,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// AuditQuery filters the audit trail. Since is inclusive, Until exclusive;
// zero values leave the bound open.
type AuditQuery struct {
	Action  string
	Status  string
	ActorID int64
	Since   time.Time
	Until   time.Time
	Page    int
	Limit   int
}

// Within reports whether t falls inside the query's time bounds.
func (q AuditQuery) Within(t time.Time) bool {
	if !q.Since.IsZero() && t.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !t.Before(q.Until) {
		return false
	}
	return true
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
}

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 200
)

// Normalized clamps paging to sane bounds.
func (q AuditQuery) Normalized() AuditQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultAuditLimit
	}
	if q.Limit > MaxAuditLimit {
		q.Limit = MaxAuditLimit
	}
	return q
}
