package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-ceremony-portal/internal/model"
)

func TestMemoryUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("username lookup ignores case and duplicates conflict", func(t *testing.T) {
		store := NewMemoryStore()
		created, err := store.Users.Create(ctx, model.StaffUser{Username: "Somchai", Role: model.RoleSupervisor})
		require.NoError(t, err)
		require.NotZero(t, created.ID)

		found, err := store.Users.FindByUsername(ctx, "  somchai ")
		require.NoError(t, err)
		require.Equal(t, created.ID, found.ID)

		_, err = store.Users.Create(ctx, model.StaffUser{Username: "SOMCHAI", Role: model.RoleSupervisor})
		require.ErrorIs(t, err, model.ErrAlreadyExists)
	})

	t.Run("missing rows map to not found", func(t *testing.T) {
		store := NewMemoryStore()
		_, err := store.Users.FindByID(ctx, 99)
		require.ErrorIs(t, err, model.ErrUserNotFound)
		_, err = store.Users.Update(ctx, model.StaffUser{ID: 99})
		require.ErrorIs(t, err, model.ErrUserNotFound)
		require.ErrorIs(t, store.Users.Delete(ctx, 99), model.ErrUserNotFound)
	})

	t.Run("update keeps username and creation time", func(t *testing.T) {
		store := NewMemoryStore()
		created, err := store.Users.Create(ctx, model.StaffUser{Username: "prof", Role: model.RoleSupervisor})
		require.NoError(t, err)

		updated, err := store.Users.Update(ctx, model.StaffUser{ID: created.ID, Username: "renamed", FirstName: "Niran"})
		require.NoError(t, err)
		require.Equal(t, "prof", updated.Username)
		require.Equal(t, created.CreatedAt, updated.CreatedAt)

		count, err := store.Users.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})
}

func TestMemoryDiplomasFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	require.NoError(t, store.SeedDemo(ctx))

	all, err := store.Diplomas.List(ctx, model.DiplomaFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	sci, err := store.Diplomas.List(ctx, model.DiplomaFilter{FacultyCode: "SCI"})
	require.NoError(t, err)
	require.Len(t, sci, 1)
	require.Equal(t, "SCI", sci[0].FacultyCode)

	none, err := store.Diplomas.List(ctx, model.DiplomaFilter{FacultyCode: "SCI", StudentID: "6402001"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMemoryFacultiesUniqueCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	sci, err := store.Faculties.Create(ctx, model.Faculty{FacultyCode: "SCI", FacultyName: "Science"})
	require.NoError(t, err)
	eng, err := store.Faculties.Create(ctx, model.Faculty{FacultyCode: "ENG", FacultyName: "Engineering"})
	require.NoError(t, err)

	_, err = store.Faculties.Update(ctx, model.Faculty{ID: eng.ID, FacultyCode: "SCI"})
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	_, err = store.Faculties.Update(ctx, model.Faculty{ID: sci.ID, FacultyCode: "SCI", FacultyName: "Sciences"})
	require.NoError(t, err)

	list, err := store.Faculties.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "ENG", list[0].FacultyCode)
}

func TestMemoryRevocations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revocations.Revoke(ctx, "old", 1, now.Add(-time.Minute)))
	require.NoError(t, store.Revocations.Revoke(ctx, "live", 1, now.Add(time.Hour)))

	revoked, err := store.Revocations.IsRevoked(ctx, "old")
	require.NoError(t, err)
	require.True(t, revoked)

	removed, err := store.Revocations.CleanExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	revoked, err = store.Revocations.IsRevoked(ctx, "live")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = store.Revocations.IsRevoked(ctx, "old")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestMemoryAuditQuery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	for i, action := range []string{"auth.login", "auth.login", "auth.logout"} {
		require.NoError(t, store.Audit.Log(ctx, model.AuditEntry{
			Action: action,
			Status: "success",
			Actor:  model.AuditActor{PrincipalID: int64(i + 1)},
		}))
	}

	items, meta, err := store.Audit.Query(ctx, model.AuditQuery{Action: "AUTH.LOGIN", Limit: 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.EqualValues(t, 2, items[0].Actor.PrincipalID)
	require.Equal(t, 2, meta.Total)
	require.Equal(t, 2, meta.TotalPages)

	items, _, err = store.Audit.Query(ctx, model.AuditQuery{Page: 5})
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestMemoryAuditTimeWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	for i := range 3 {
		require.NoError(t, store.Audit.Log(ctx, model.AuditEntry{
			Action:     "auth.login_failed",
			Status:     "failure",
			OccurredAt: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339Nano),
		}))
	}

	items, _, err := store.Audit.Query(ctx, model.AuditQuery{Since: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, _, err = store.Audit.Query(ctx, model.AuditQuery{Since: base, Until: base.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, base.Format(time.RFC3339Nano), items[0].OccurredAt)
}
