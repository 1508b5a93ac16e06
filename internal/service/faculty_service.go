package service

import (
	"context"
	"fmt"
	"strings"

	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/util"
)

type FacultyStore interface {
	FindByID(ctx context.Context, id int64) (model.Faculty, error)
	List(ctx context.Context) ([]model.Faculty, error)
	Create(ctx context.Context, f model.Faculty) (model.Faculty, error)
	Update(ctx context.Context, f model.Faculty) (model.Faculty, error)
	Delete(ctx context.Context, id int64) error
}

// FacultyService is readable by every staff role and writable by
// Supervisors only, so it takes no scope.
type FacultyService struct {
	faculties FacultyStore
	bus       event.Bus
}

func NewFacultyService(faculties FacultyStore, bus event.Bus) *FacultyService {
	return &FacultyService{faculties: faculties, bus: bus}
}

func (s *FacultyService) List(ctx context.Context) ([]model.Faculty, error) {
	return s.faculties.List(ctx)
}

func (s *FacultyService) Get(ctx context.Context, id int64) (model.Faculty, error) {
	return s.faculties.FindByID(ctx, id)
}

func (s *FacultyService) Create(ctx context.Context, req model.FacultyRequest, actor model.AuditActor) (model.Faculty, error) {
	faculty, err := facultyFromRequest(req)
	if err != nil {
		return model.Faculty{}, err
	}
	created, err := s.faculties.Create(ctx, faculty)
	if err != nil {
		return model.Faculty{}, err
	}
	publishChange(s.bus, actor, "faculties/"+created.FacultyCode)
	return created, nil
}

func (s *FacultyService) Update(ctx context.Context, id int64, req model.FacultyRequest, actor model.AuditActor) (model.Faculty, error) {
	faculty, err := facultyFromRequest(req)
	if err != nil {
		return model.Faculty{}, err
	}
	faculty.ID = id
	updated, err := s.faculties.Update(ctx, faculty)
	if err != nil {
		return model.Faculty{}, err
	}
	publishChange(s.bus, actor, "faculties/"+updated.FacultyCode)
	return updated, nil
}

func (s *FacultyService) Delete(ctx context.Context, id int64, actor model.AuditActor) error {
	if err := s.faculties.Delete(ctx, id); err != nil {
		return err
	}
	publishChange(s.bus, actor, fmt.Sprintf("faculties/%d", id))
	return nil
}

func facultyFromRequest(req model.FacultyRequest) (model.Faculty, error) {
	faculty := model.Faculty{
		FacultyCode: strings.TrimSpace(req.FacultyCode),
		FacultyName: util.CleanText(req.FacultyName),
	}
	if faculty.FacultyCode == "" || faculty.FacultyName == "" {
		return model.Faculty{}, fmt.Errorf("%w: faculty_code and faculty_name are required", model.ErrInvalidInput)
	}
	return faculty, nil
}
