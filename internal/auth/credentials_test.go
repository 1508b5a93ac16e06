package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"go-ceremony-portal/internal/model"
)

func TestVerifyStaff(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	verifier := NewVerifier(fx.store.Users, fx.store.Graduates)

	t.Run("valid credentials yield the stored role", func(t *testing.T) {
		p, err := verifier.VerifyStaff(ctx, "PROF.sci", "battery staple")
		require.NoError(t, err)
		require.Equal(t, KindStaff, p.Kind)
		require.Equal(t, fx.professor.ID, p.ID)
		require.Equal(t, model.RoleProfessor, p.Role)
		require.Equal(t, "SCI", p.FacultyCode)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		_, wrongPassword := verifier.VerifyStaff(ctx, "root", "nope")
		_, unknownUser := verifier.VerifyStaff(ctx, "ghost", "nope")

		require.ErrorIs(t, wrongPassword, model.ErrInvalidCredentials)
		require.ErrorIs(t, unknownUser, model.ErrInvalidCredentials)
		require.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})

	t.Run("account without a hash cannot log in", func(t *testing.T) {
		_, err := fx.store.Users.Create(ctx, model.StaffUser{Username: "nohash", Role: model.RoleSupervisor})
		require.NoError(t, err)

		_, err = verifier.VerifyStaff(ctx, "nohash", "")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
		_, err = verifier.VerifyStaff(ctx, "nohash", "anything")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		broken := NewVerifier(brokenStaff{}, brokenGraduates{})
		_, err := broken.VerifyStaff(ctx, "root", "correct horse")
		require.ErrorIs(t, err, errStoreDown)
		require.NotErrorIs(t, err, model.ErrInvalidCredentials)
	})
}

func TestVerifyGraduate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fx := newFixture(t)
	verifier := NewVerifier(fx.store.Users, fx.store.Graduates)

	_, err := fx.store.Graduates.Create(ctx, model.Graduate{
		StudentID:   "6402001",
		PassportNo:  "AA1234567",
		FacultyCode: "ENG",
	})
	require.NoError(t, err)

	t.Run("citizen id matches", func(t *testing.T) {
		p, err := verifier.VerifyGraduate(ctx, "6401001", "1100000000011")
		require.NoError(t, err)
		require.Equal(t, KindGraduate, p.Kind)
		require.Equal(t, model.RoleGraduate, p.Role)
		require.Equal(t, "6401001", p.StudentID)
	})

	t.Run("passport number matches", func(t *testing.T) {
		p, err := verifier.VerifyGraduate(ctx, "6402001", "AA1234567")
		require.NoError(t, err)
		require.Equal(t, "ENG", p.FacultyCode)
	})

	t.Run("empty stored passport never matches", func(t *testing.T) {
		_, err := verifier.VerifyGraduate(ctx, "6401001", "")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("wrong secret and unknown student look the same", func(t *testing.T) {
		_, wrong := verifier.VerifyGraduate(ctx, "6401001", "0000000000000")
		_, unknown := verifier.VerifyGraduate(ctx, "9999999", "1100000000011")
		require.ErrorIs(t, wrong, model.ErrInvalidCredentials)
		require.Equal(t, wrong.Error(), unknown.Error())
	})

	t.Run("store failure propagates", func(t *testing.T) {
		broken := NewVerifier(brokenStaff{}, brokenGraduates{})
		_, err := broken.VerifyGraduate(ctx, "6401001", "1100000000011")
		require.ErrorIs(t, err, errStoreDown)
	})
}
