package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
	"go-ceremony-portal/internal/repository"
)

var (
	allScope = auth.Scope{Kind: auth.ScopeAll}
	sciScope = auth.Scope{Kind: auth.ScopeFaculty, FacultyCode: "SCI"}
)

func strPtr(s string) *string { return &s }

func seededStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.SeedDemo(context.Background()))
	return store
}

// nextEvent waits briefly for the next event on ch.
func nextEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return event.Event{}
	}
}

func TestUserService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newService := func() (*UserService, *repository.MemoryStore) {
		store := repository.NewMemoryStore()
		return NewUserService(store.Users, nil, WithHashCost(bcrypt.MinCost)), store
	}

	t.Run("create hashes the password and enforces role invariants", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(ctx, model.CreateUserRequest{Username: "prof", Password: "longenough", Role: model.RoleProfessor}, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrInvalidInput)

		user, err := svc.Create(ctx, model.CreateUserRequest{
			Username:        "boss",
			Password:        "longenough",
			Role:            model.RoleSupervisor,
			FacultyCode:     strPtr("SCI"),
			ManageUndergrad: true,
		}, model.AuditActor{})
		require.NoError(t, err)
		require.Nil(t, user.FacultyCode)
		require.False(t, user.Permissions.ManageUndergrad)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))

		_, err = svc.Create(ctx, model.CreateUserRequest{Username: "BOSS", Password: "longenough", Role: model.RoleSupervisor}, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrAlreadyExists)

		_, err = svc.Create(ctx, model.CreateUserRequest{Username: "short", Password: "1234", Role: model.RoleSupervisor}, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("promotion to supervisor clears the faculty", func(t *testing.T) {
		svc, _ := newService()
		prof, err := svc.Create(ctx, model.CreateUserRequest{
			Username: "prof", Password: "longenough", Role: model.RoleProfessor, FacultyCode: strPtr("SCI"),
		}, model.AuditActor{})
		require.NoError(t, err)

		supervisor := model.RoleSupervisor
		updated, err := svc.Update(ctx, prof.ID, model.UpdateUserRequest{Role: &supervisor}, model.AuditActor{})
		require.NoError(t, err)
		require.Equal(t, model.RoleSupervisor, updated.Role)
		require.Nil(t, updated.FacultyCode)

		professor := model.RoleProfessor
		_, err = svc.Update(ctx, prof.ID, model.UpdateUserRequest{Role: &professor}, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("nobody deletes their own account", func(t *testing.T) {
		svc, store := newService()
		boss, err := svc.Create(ctx, model.CreateUserRequest{Username: "boss", Password: "longenough", Role: model.RoleSupervisor}, model.AuditActor{})
		require.NoError(t, err)

		err = svc.Delete(ctx, auth.StaffPrincipal(boss), boss.ID, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrCannotDeleteSelf)

		_, err = store.Users.FindByID(ctx, boss.ID)
		require.NoError(t, err)
	})

	t.Run("bootstrap only runs on an empty table", func(t *testing.T) {
		svc, _ := newService()

		created, err := svc.Bootstrap(ctx, "admin", "")
		require.NoError(t, err)
		require.False(t, created)

		created, err = svc.Bootstrap(ctx, "admin", "bootstrap-pass")
		require.NoError(t, err)
		require.True(t, created)

		created, err = svc.Bootstrap(ctx, "admin2", "bootstrap-pass")
		require.NoError(t, err)
		require.False(t, created)
	})
}

func TestDiplomaServiceScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := seededStore(t)
	svc := NewDiplomaService(store.Diplomas, store.Graduates, nil)

	all, err := svc.List(ctx, allScope, model.DiplomaFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	var sciID, engID int64
	for _, d := range all {
		if d.FacultyCode == "SCI" {
			sciID = d.ID
		} else {
			engID = d.ID
		}
	}

	t.Run("scoped list cannot be widened by the request", func(t *testing.T) {
		rows, err := svc.List(ctx, sciScope, model.DiplomaFilter{FacultyCode: "ENG"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, "SCI", rows[0].FacultyCode)
	})

	t.Run("out of scope record is forbidden", func(t *testing.T) {
		_, err := svc.Get(ctx, sciScope, engID)
		require.ErrorIs(t, err, model.ErrForbidden)

		_, err = svc.Get(ctx, sciScope, sciID)
		require.NoError(t, err)
	})

	t.Run("out of scope delete leaves the row", func(t *testing.T) {
		err := svc.Delete(ctx, sciScope, engID, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrForbidden)

		_, err = store.Diplomas.FindByID(ctx, engID)
		require.NoError(t, err)
	})

	t.Run("moving a row out of the scope is forbidden", func(t *testing.T) {
		_, err := svc.Update(ctx, sciScope, sciID, model.UpdateDiplomaRequest{FacultyCode: strPtr("ENG")}, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrForbidden)

		attend := true
		updated, err := svc.Update(ctx, sciScope, sciID, model.UpdateDiplomaRequest{FirstAttend: &attend}, model.AuditActor{})
		require.NoError(t, err)
		require.True(t, updated.FirstAttend)
		require.Equal(t, "SCI", updated.FacultyCode)
	})

	t.Run("create in another faculty is forbidden and links graduates", func(t *testing.T) {
		_, err := svc.Create(ctx, sciScope, model.CreateDiplomaRequest{StudentID: "6402001", FacultyCode: "ENG"}, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrForbidden)

		created, err := svc.Create(ctx, sciScope, model.CreateDiplomaRequest{StudentID: "6401001", FacultyCode: "SCI"}, model.AuditActor{})
		require.NoError(t, err)
		require.NotNil(t, created.GraduateID)
	})

	t.Run("faculty codes differing only in case are separate", func(t *testing.T) {
		scope, err := auth.NewPolicy(nil).Authorize(auth.Principal{
			Kind:        auth.KindStaff,
			ID:          99,
			Role:        model.RoleProfessor,
			FacultyCode: "eng",
		}, auth.ResourceDiplomas, auth.ActionDelete)
		require.NoError(t, err)

		rows, err := svc.List(ctx, scope, model.DiplomaFilter{})
		require.NoError(t, err)
		require.Empty(t, rows)

		_, err = svc.Get(ctx, scope, engID)
		require.ErrorIs(t, err, model.ErrForbidden)

		err = svc.Delete(ctx, scope, engID, model.AuditActor{})
		require.ErrorIs(t, err, model.ErrForbidden)

		_, err = store.Diplomas.FindByID(ctx, engID)
		require.NoError(t, err)
	})

	t.Run("zero scope lists nothing", func(t *testing.T) {
		rows, err := svc.List(ctx, auth.Scope{}, model.DiplomaFilter{})
		require.ErrorIs(t, err, model.ErrForbidden)
		require.Nil(t, rows)
	})

	t.Run("self scope sees only own diplomas", func(t *testing.T) {
		rows, err := svc.List(ctx, auth.Scope{Kind: auth.ScopeSelf, StudentID: "6402001"}, model.DiplomaFilter{StudentID: "6401001"})
		require.NoError(t, err)
		for _, d := range rows {
			require.Equal(t, "6402001", d.StudentID)
		}
	})
}

func TestGraduateServiceScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := seededStore(t)
	svc := NewGraduateService(store.Graduates, nil)

	rows, err := svc.List(ctx, sciScope, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = svc.List(ctx, auth.Scope{}, "")
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.List(ctx, auth.Scope{Kind: auth.ScopeSelf, StudentID: "6401001"}, "")
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Get(ctx, sciScope, "6402001")
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Get(ctx, allScope, "0000000")
	require.ErrorIs(t, err, model.ErrGraduateNotFound)

	updated, err := svc.Update(ctx, allScope, "6402001", model.UpdateGraduateRequest{FirstName: strPtr("Malee")}, model.AuditActor{})
	require.NoError(t, err)
	require.Equal(t, "Malee", updated.FirstName)
	require.Equal(t, "AA1234567", updated.PassportNo)

	require.NoError(t, svc.Delete(ctx, allScope, "6402001", model.AuditActor{}))
	_, err = svc.Get(ctx, allScope, "6402001")
	require.ErrorIs(t, err, model.ErrGraduateNotFound)
}

func TestFacultyService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	svc := NewFacultyService(store.Faculties, nil)

	_, err := svc.Create(ctx, model.FacultyRequest{FacultyCode: " "}, model.AuditActor{})
	require.ErrorIs(t, err, model.ErrInvalidInput)

	created, err := svc.Create(ctx, model.FacultyRequest{FacultyCode: "LAW", FacultyName: "Law"}, model.AuditActor{})
	require.NoError(t, err)

	_, err = svc.Create(ctx, model.FacultyRequest{FacultyCode: "LAW", FacultyName: "Law again"}, model.AuditActor{})
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	updated, err := svc.Update(ctx, created.ID, model.FacultyRequest{FacultyCode: "LAW", FacultyName: "Faculty of Law"}, model.AuditActor{})
	require.NoError(t, err)
	require.Equal(t, "Faculty of Law", updated.FacultyName)

	require.NoError(t, svc.Delete(ctx, created.ID, model.AuditActor{}))
	require.ErrorIs(t, svc.Delete(ctx, created.ID, model.AuditActor{}), model.ErrFacultyNotFound)
}

func TestAuthServiceLoginAndLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := seededStore(t)
	users := NewUserService(store.Users, nil, WithHashCost(bcrypt.MinCost))
	_, err := users.Bootstrap(ctx, "admin", "bootstrap-pass")
	require.NoError(t, err)

	issuer, err := auth.NewIssuer("service-test-secret", time.Hour, 8*time.Hour)
	require.NoError(t, err)

	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	svc := NewAuthService(auth.NewVerifier(store.Users, store.Graduates), issuer, store.Revocations, bus, nil)
	resolver := auth.NewResolver(issuer, store.Users, store.Graduates, store.Revocations)

	_, err = svc.LoginStaff(ctx, "admin", "wrong-pass", model.AuditActor{IP: "10.0.0.1"})
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
	failed := nextEvent(t, events)
	require.Equal(t, event.TypeLoginFailed, failed.Type)
	require.Equal(t, "admin", failed.Actor.Name)
	require.Equal(t, "10.0.0.1", failed.Actor.IP)

	resp, err := svc.LoginStaff(ctx, "admin", "bootstrap-pass", model.AuditActor{})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Equal(t, model.RoleSupervisor, resp.User.Role)
	require.Equal(t, event.TypeLoginSucceeded, nextEvent(t, events).Type)

	gradResp, err := svc.LoginGraduate(ctx, "6402001", "AA1234567", model.AuditActor{})
	require.NoError(t, err)
	require.Equal(t, model.RoleGraduate, gradResp.User.Role)
	require.WithinDuration(t, time.Now().Add(8*time.Hour), gradResp.ExpiresAt, 5*time.Second)
	nextEvent(t, events)

	session, err := resolver.ResolveToken(ctx, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session, "10.0.0.2"))
	require.Equal(t, event.TypeLogout, nextEvent(t, events).Type)

	_, err = resolver.ResolveToken(ctx, resp.Token)
	require.ErrorIs(t, err, model.ErrTokenRevoked)

	_, err = resolver.ResolveToken(ctx, gradResp.Token)
	require.NoError(t, err)
}

func TestRevocationSweeper(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	require.NoError(t, store.Revocations.Revoke(ctx, "gone", 1, time.Now().Add(-time.Minute)))
	require.NoError(t, store.Revocations.Revoke(ctx, "kept", 1, time.Now().Add(time.Hour)))

	sweeper := NewRevocationSweeper(store.Revocations, time.Millisecond)
	require.EqualValues(t, 1, sweeper.Sweep(ctx))

	runCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	require.NoError(t, sweeper.Run(runCtx))
}

func TestAuditServiceConsumesBus(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	svc := NewAuditService(store.Audit)
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()

	done := make(chan error, 1)
	go func() { done <- svc.Consume(ctx, events) }()

	bus.Publish(event.Event{Type: event.TypeAccessDenied, Status: event.StatusDenied, Resource: "audit"})
	unsubscribe()
	require.NoError(t, <-done)

	items, meta, err := svc.Query(ctx, model.AuditQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, meta.Total)
	require.Equal(t, "auth.access_denied", items[0].Action)
}
