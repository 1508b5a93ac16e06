package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
)

type DiplomaStore interface {
	FindByID(ctx context.Context, id int64) (model.Diploma, error)
	List(ctx context.Context, filter model.DiplomaFilter) ([]model.Diploma, error)
	Create(ctx context.Context, d model.Diploma) (model.Diploma, error)
	Update(ctx context.Context, d model.Diploma) (model.Diploma, error)
	Delete(ctx context.Context, id int64) error
}

type GraduateLookup interface {
	FindByStudentID(ctx context.Context, studentID string) (model.Graduate, error)
}

// DiplomaService runs every query under the scope granted by the policy:
// list queries get the scope's row filter, single-record operations check
// the fetched row against it.
type DiplomaService struct {
	diplomas  DiplomaStore
	graduates GraduateLookup
	bus       event.Bus
}

func NewDiplomaService(diplomas DiplomaStore, graduates GraduateLookup, bus event.Bus) *DiplomaService {
	return &DiplomaService{diplomas: diplomas, graduates: graduates, bus: bus}
}

// List narrows the requested filter by the scope. A scoped principal cannot
// widen its partition through query parameters.
func (s *DiplomaService) List(ctx context.Context, scope auth.Scope, requested model.DiplomaFilter) ([]model.Diploma, error) {
	filter, err := scope.DiplomaFilter()
	if err != nil {
		return nil, err
	}
	if filter.FacultyCode == "" {
		filter.FacultyCode = strings.TrimSpace(requested.FacultyCode)
	}
	if filter.StudentID == "" {
		filter.StudentID = strings.TrimSpace(requested.StudentID)
	}
	return s.diplomas.List(ctx, filter)
}

func (s *DiplomaService) ByStudent(ctx context.Context, scope auth.Scope, studentID string) ([]model.Diploma, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student_id is required", model.ErrInvalidInput)
	}
	return s.List(ctx, scope, model.DiplomaFilter{StudentID: studentID})
}

func (s *DiplomaService) Get(ctx context.Context, scope auth.Scope, id int64) (model.Diploma, error) {
	diploma, err := s.diplomas.FindByID(ctx, id)
	if err != nil {
		return model.Diploma{}, err
	}
	if err := scope.Permits(diploma.FacultyCode, diploma.StudentID); err != nil {
		return model.Diploma{}, err
	}
	return diploma, nil
}

func (s *DiplomaService) Create(ctx context.Context, scope auth.Scope, req model.CreateDiplomaRequest, actor model.AuditActor) (model.Diploma, error) {
	diploma := model.Diploma{
		StudentID:   strings.TrimSpace(req.StudentID),
		GraduateID:  req.GraduateID,
		FacultyCode: strings.TrimSpace(req.FacultyCode),
		DegreeTH:    req.DegreeTH,
		DegreeEN:    req.DegreeEN,
		MajorTH:     req.MajorTH,
		MajorEN:     req.MajorEN,
		Honor:       req.Honor,
		GradYear:    req.GradYear,
		OrderNo:     req.OrderNo,
	}
	if diploma.StudentID == "" || diploma.FacultyCode == "" {
		return model.Diploma{}, fmt.Errorf("%w: student_id and faculty_code are required", model.ErrInvalidInput)
	}
	if err := scope.Permits(diploma.FacultyCode, diploma.StudentID); err != nil {
		return model.Diploma{}, err
	}

	if diploma.GraduateID == nil && s.graduates != nil {
		graduate, err := s.graduates.FindByStudentID(ctx, diploma.StudentID)
		switch {
		case err == nil:
			diploma.GraduateID = &graduate.ID
		case !errors.Is(err, model.ErrGraduateNotFound):
			return model.Diploma{}, err
		}
	}

	created, err := s.diplomas.Create(ctx, diploma)
	if err != nil {
		return model.Diploma{}, err
	}
	publishChange(s.bus, actor, fmt.Sprintf("diplomas/%d", created.ID))
	return created, nil
}

// Update checks the scope against the stored row and, when the faculty
// changes, against the new faculty as well.
func (s *DiplomaService) Update(ctx context.Context, scope auth.Scope, id int64, req model.UpdateDiplomaRequest, actor model.AuditActor) (model.Diploma, error) {
	diploma, err := s.Get(ctx, scope, id)
	if err != nil {
		return model.Diploma{}, err
	}

	if req.FacultyCode != nil {
		code := strings.TrimSpace(*req.FacultyCode)
		if code == "" {
			return model.Diploma{}, fmt.Errorf("%w: faculty_code cannot be empty", model.ErrInvalidInput)
		}
		if err := scope.Permits(code, diploma.StudentID); err != nil {
			return model.Diploma{}, err
		}
		diploma.FacultyCode = code
	}
	assign(&diploma.DegreeTH, req.DegreeTH)
	assign(&diploma.DegreeEN, req.DegreeEN)
	assign(&diploma.MajorTH, req.MajorTH)
	assign(&diploma.MajorEN, req.MajorEN)
	assign(&diploma.Honor, req.Honor)
	assign(&diploma.GradYear, req.GradYear)
	assign(&diploma.OrderNo, req.OrderNo)
	assign(&diploma.FirstAttend, req.FirstAttend)
	assign(&diploma.SecondAttend, req.SecondAttend)
	assign(&diploma.ExtraAttend, req.ExtraAttend)

	updated, err := s.diplomas.Update(ctx, diploma)
	if err != nil {
		return model.Diploma{}, err
	}
	publishChange(s.bus, actor, fmt.Sprintf("diplomas/%d", updated.ID))
	return updated, nil
}

func (s *DiplomaService) Delete(ctx context.Context, scope auth.Scope, id int64, actor model.AuditActor) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	if err := s.diplomas.Delete(ctx, id); err != nil {
		return err
	}
	publishChange(s.bus, actor, fmt.Sprintf("diplomas/%d", id))
	return nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func publishChange(bus event.Bus, actor model.AuditActor, resource string) {
	if bus == nil {
		return
	}
	bus.Publish(event.Event{
		Type:     event.TypeRecordChanged,
		Actor:    actor,
		Status:   event.StatusSuccess,
		Resource: resource,
	})
}
