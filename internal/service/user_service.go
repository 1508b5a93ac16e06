package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/util"
)

const defaultHashCost = 12

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.StaffUser, error)
	FindByUsername(ctx context.Context, username string) (model.StaffUser, error)
	List(ctx context.Context) ([]model.StaffUser, error)
	Create(ctx context.Context, u model.StaffUser) (model.StaffUser, error)
	Update(ctx context.Context, u model.StaffUser) (model.StaffUser, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type UserService struct {
	users    UserStore
	bus      event.Bus
	hashCost int
}

type UserServiceOption func(*UserService)

// WithHashCost lowers the bcrypt cost, for tests.
func WithHashCost(cost int) UserServiceOption {
	return func(s *UserService) {
		s.hashCost = cost
	}
}

func NewUserService(users UserStore, bus event.Bus, opts ...UserServiceOption) *UserService {
	s := &UserService{users: users, bus: bus, hashCost: defaultHashCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserService) List(ctx context.Context) ([]model.StaffUser, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (model.StaffUser, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest, actor model.AuditActor) (model.StaffUser, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return model.StaffUser{}, fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return model.StaffUser{}, err
	}

	user := model.StaffUser{
		Username:     username,
		PasswordHash: hash,
		FirstName:    util.CleanText(req.FirstName),
		LastName:     util.CleanText(req.LastName),
		Role:         req.Role,
		FacultyCode:  req.FacultyCode,
		Permissions: model.Permissions{
			ManageUndergrad: req.ManageUndergrad,
			ManageGraduate:  req.ManageGraduate,
		},
	}
	if err := user.Normalize(); err != nil {
		return model.StaffUser{}, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return model.StaffUser{}, err
	}

	s.publish(event.TypeUserCreated, actor, created.ID)
	return created, nil
}

// Update applies a partial update and re-checks the role invariants on the
// merged record.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest, actor model.AuditActor) (model.StaffUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.StaffUser{}, err
	}

	if req.FirstName != nil {
		user.FirstName = util.CleanText(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = util.CleanText(*req.LastName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.FacultyCode != nil {
		user.FacultyCode = req.FacultyCode
	}
	if req.ManageUndergrad != nil {
		user.Permissions.ManageUndergrad = *req.ManageUndergrad
	}
	if req.ManageGraduate != nil {
		user.Permissions.ManageGraduate = *req.ManageGraduate
	}
	if req.Password != nil {
		hash, err := s.hash(*req.Password)
		if err != nil {
			return model.StaffUser{}, err
		}
		user.PasswordHash = hash
	}

	if err := user.Normalize(); err != nil {
		return model.StaffUser{}, err
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return model.StaffUser{}, err
	}

	s.publish(event.TypeUserUpdated, actor, updated.ID)
	return updated, nil
}

// Delete removes a staff account. Nobody can delete their own account;
// existing tokens of the deleted user stop resolving on the next request.
func (s *UserService) Delete(ctx context.Context, principal auth.Principal, id int64, actor model.AuditActor) error {
	if err := auth.EnsureNotSelf(principal, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(event.TypeUserDeleted, actor, id)
	return nil
}

// Bootstrap creates the first Supervisor when the user table is empty.
// It reports whether an account was created.
func (s *UserService) Bootstrap(ctx context.Context, username string, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = s.Create(ctx, model.CreateUserRequest{
		Username: username,
		Password: password,
		Role:     model.RoleSupervisor,
	}, model.AuditActor{Name: "bootstrap"})
	if err != nil {
		return false, fmt.Errorf("bootstrap supervisor: %w", err)
	}
	return true, nil
}

func (s *UserService) hash(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", model.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *UserService) publish(t event.Type, actor model.AuditActor, targetID int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		Type:     t,
		Actor:    actor,
		Status:   event.StatusSuccess,
		Resource: fmt.Sprintf("users/%d", targetID),
	})
}
