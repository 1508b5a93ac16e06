package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/event"
	"go-ceremony-portal/internal/model"
)

type stubResolver struct {
	session auth.Session
	err     error
}

func (s stubResolver) Resolve(context.Context, *http.Request) (auth.Session, error) {
	return s.session, s.err
}

func scopeEcho(t *testing.T, want auth.Scope) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, want, ScopeFromContext(r.Context()))
		_, ok := PrincipalFromContext(r.Context())
		assert.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddlewareStatusCodes(t *testing.T) {
	t.Parallel()

	professor := auth.Session{Principal: auth.Principal{Kind: auth.KindStaff, ID: 2, Role: model.RoleProfessor, FacultyCode: "SCI"}}
	policy := auth.NewPolicy(nil)

	cases := []struct {
		name     string
		resolver stubResolver
		resource auth.Resource
		want     int
	}{
		{"unauthenticated", stubResolver{err: model.ErrUnauthenticated}, auth.ResourceDiplomas, http.StatusUnauthorized},
		{"revoked token", stubResolver{err: errors.Join(model.ErrUnauthenticated, model.ErrTokenRevoked)}, auth.ResourceDiplomas, http.StatusUnauthorized},
		{"store failure", stubResolver{err: errors.New("db down")}, auth.ResourceDiplomas, http.StatusInternalServerError},
		{"denied by policy", stubResolver{session: professor}, auth.ResourceUsers, http.StatusForbidden},
		{"allowed with scope", stubResolver{session: professor}, auth.ResourceDiplomas, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := NewAuthMiddleware(tc.resolver, policy, nil, nil)
			handler := mw.Require(tc.resource, auth.ActionRead)(scopeEcho(t, auth.Scope{Kind: auth.ScopeFaculty, FacultyCode: "SCI"}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil))
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAuthorizeWithoutSessionIsUnauthorized(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(stubResolver{}, auth.NewPolicy(nil), nil, nil)
	rec := httptest.NewRecorder()
	mw.Authorize(auth.ResourceUsers, auth.ActionRead)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthorizePublishesDenial(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	graduate := auth.Session{Principal: auth.Principal{Kind: auth.KindGraduate, ID: 5, Name: "6401001", Role: model.RoleGraduate, StudentID: "6401001"}}
	mw := NewAuthMiddleware(stubResolver{session: graduate}, auth.NewPolicy(nil), bus, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/1", nil)
	req.Header.Set("X-Real-IP", "198.51.100.20")
	rec := httptest.NewRecorder()
	mw.Require(auth.ResourceUsers, auth.ActionDelete)(okHandler()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	select {
	case e := <-events:
		require.Equal(t, event.TypeAccessDenied, e.Type)
		require.Equal(t, "delete users", e.Resource)
		require.Equal(t, "198.51.100.20", e.Actor.IP)
	case <-time.After(time.Second):
		t.Fatal("denial not published")
	}
}

func TestScopeFromContextDefaultsToNothing(t *testing.T) {
	t.Parallel()

	scope := ScopeFromContext(context.Background())
	require.ErrorIs(t, scope.Permits("SCI", "1"), model.ErrForbidden)
}
