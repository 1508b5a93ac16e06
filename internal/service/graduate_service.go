package service

import (
	"context"
	"fmt"
	"strings"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/util"
)

type GraduateStore interface {
	FindByID(ctx context.Context, id int64) (model.Graduate, error)
	FindByStudentID(ctx context.Context, studentID string) (model.Graduate, error)
	List(ctx context.Context, filter model.GraduateFilter) ([]model.Graduate, error)
	Create(ctx context.Context, g model.Graduate) (model.Graduate, error)
	Update(ctx context.Context, g model.Graduate) (model.Graduate, error)
	Delete(ctx context.Context, id int64) error
}

type GraduateService struct {
	graduates GraduateStore
	bus       event.Bus
}

func NewGraduateService(graduates GraduateStore, bus event.Bus) *GraduateService {
	return &GraduateService{graduates: graduates, bus: bus}
}

func (s *GraduateService) List(ctx context.Context, scope auth.Scope, facultyCode string) ([]model.Graduate, error) {
	filter := model.GraduateFilter{FacultyCode: strings.TrimSpace(facultyCode)}
	switch {
	case !scope.Valid():
		return nil, fmt.Errorf("%w: no scope", model.ErrForbidden)
	case scope.Kind == auth.ScopeFaculty:
		filter.FacultyCode = scope.FacultyCode
	case scope.Kind != auth.ScopeAll:
		return nil, fmt.Errorf("%w: graduate list needs a staff scope", model.ErrForbidden)
	}
	return s.graduates.List(ctx, filter)
}

func (s *GraduateService) Get(ctx context.Context, scope auth.Scope, studentID string) (model.Graduate, error) {
	graduate, err := s.graduates.FindByStudentID(ctx, studentID)
	if err != nil {
		return model.Graduate{}, err
	}
	if err := scope.Permits(graduate.FacultyCode, graduate.StudentID); err != nil {
		return model.Graduate{}, err
	}
	return graduate, nil
}

func (s *GraduateService) Create(ctx context.Context, scope auth.Scope, req model.GraduateRequest, actor model.AuditActor) (model.Graduate, error) {
	graduate := model.Graduate{
		StudentID:   strings.TrimSpace(req.StudentID),
		CitizenID:   strings.TrimSpace(req.CitizenID),
		PassportNo:  strings.TrimSpace(req.PassportNo),
		FirstName:   util.CleanText(req.FirstName),
		LastName:    util.CleanText(req.LastName),
		FacultyCode: strings.TrimSpace(req.FacultyCode),
	}
	if graduate.StudentID == "" || graduate.FacultyCode == "" {
		return model.Graduate{}, fmt.Errorf("%w: student_id and faculty_code are required", model.ErrInvalidInput)
	}
	if err := scope.Permits(graduate.FacultyCode, graduate.StudentID); err != nil {
		return model.Graduate{}, err
	}

	created, err := s.graduates.Create(ctx, graduate)
	if err != nil {
		return model.Graduate{}, err
	}
	publishChange(s.bus, actor, "graduates/"+created.StudentID)
	return created, nil
}

func (s *GraduateService) Update(ctx context.Context, scope auth.Scope, studentID string, req model.UpdateGraduateRequest, actor model.AuditActor) (model.Graduate, error) {
	graduate, err := s.Get(ctx, scope, studentID)
	if err != nil {
		return model.Graduate{}, err
	}

	if req.FacultyCode != nil {
		code := strings.TrimSpace(*req.FacultyCode)
		if code == "" {
			return model.Graduate{}, fmt.Errorf("%w: faculty_code cannot be empty", model.ErrInvalidInput)
		}
		if err := scope.Permits(code, graduate.StudentID); err != nil {
			return model.Graduate{}, err
		}
		graduate.FacultyCode = code
	}
	assign(&graduate.CitizenID, req.CitizenID)
	assign(&graduate.PassportNo, req.PassportNo)
	assign(&graduate.FirstName, req.FirstName)
	assign(&graduate.LastName, req.LastName)
	graduate.FirstName = util.CleanText(graduate.FirstName)
	graduate.LastName = util.CleanText(graduate.LastName)

	updated, err := s.graduates.Update(ctx, graduate)
	if err != nil {
		return model.Graduate{}, err
	}
	publishChange(s.bus, actor, "graduates/"+updated.StudentID)
	return updated, nil
}

func (s *GraduateService) Delete(ctx context.Context, scope auth.Scope, studentID string, actor model.AuditActor) error {
	graduate, err := s.Get(ctx, scope, studentID)
	if err != nil {
		return err
	}
	if err := s.graduates.Delete(ctx, graduate.ID); err != nil {
		return err
	}
	publishChange(s.bus, actor, "graduates/"+graduate.StudentID)
	return nil
}
