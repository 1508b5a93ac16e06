package model

type Diploma struct {
	ID              int64  `json:"id"`
	StudentID       string `json:"student_id"`
	GraduateID      *int64 `json:"graduate_id"`
	FacultyCode     string `json:"faculty_code"`
	DegreeTH        string `json:"degree_th"`
	DegreeEN        string `json:"degree_en"`
	MajorTH         string `json:"major_th"`
	MajorEN         string `json:"major_en"`
	Honor           string `json:"honor"`
	GradYear        int    `json:"grad_year"`
	OrderNo         int    `json:"order_no"`
	FirstAttend     bool   `json:"first_attend"`
	SecondAttend    bool   `json:"second_attend"`
	ExtraAttend     bool   `json:"extra_attend"`
	EligibleReceive bool   `json:"eligible_receive"`
}

type Faculty struct {
	ID          int64  `json:"id"`
	FacultyCode string `json:"faculty_code"`
	FacultyName string `json:"faculty_name"`
}

// DiplomaFilter narrows list queries. Empty fields do not filter.
type DiplomaFilter struct {
	FacultyCode string
	StudentID   string
}

type GraduateFilter struct {
	FacultyCode string
}
