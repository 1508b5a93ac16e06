package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type brokenStaff struct{}

func (brokenStaff) FindByID(context.Context, int64) (model.StaffUser, error) {
	return model.StaffUser{}, errStoreDown
}

func (brokenStaff) FindByUsername(context.Context, string) (model.StaffUser, error) {
	return model.StaffUser{}, errStoreDown
}

type brokenGraduates struct{}

func (brokenGraduates) FindByID(context.Context, int64) (model.Graduate, error) {
	return model.Graduate{}, errStoreDown
}

func (brokenGraduates) FindByStudentID(context.Context, string) (model.Graduate, error) {
	return model.Graduate{}, errStoreDown
}

type fixture struct {
	store      *repository.MemoryStore
	supervisor model.StaffUser
	professor  model.StaffUser
	graduate   model.Graduate
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	sci := "SCI"
	supervisor, err := store.Users.Create(ctx, model.StaffUser{
		Username:     "root",
		PasswordHash: hashPassword(t, "correct horse"),
		Role:         model.RoleSupervisor,
	})
	require.NoError(t, err)

	professor, err := store.Users.Create(ctx, model.StaffUser{
		Username:     "prof.sci",
		PasswordHash: hashPassword(t, "battery staple"),
		Role:         model.RoleProfessor,
		FacultyCode:  &sci,
	})
	require.NoError(t, err)

	graduate, err := store.Graduates.Create(ctx, model.Graduate{
		StudentID:   "6401001",
		CitizenID:   "1100000000011",
		FacultyCode: "SCI",
	})
	require.NoError(t, err)

	return fixture{store: store, supervisor: supervisor, professor: professor, graduate: graduate}
}
