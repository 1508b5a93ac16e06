package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := map[string]Role{
		"Supervisor":  RoleSupervisor,
		"supervisor":  RoleSupervisor,
		" ADMIN ":     RoleSupervisor,
		"professor":   RoleProfessor,
		"GRADUATE":    RoleGraduate,
		"":            RoleUnknown,
		"dean":        RoleUnknown,
		"supervisor1": RoleUnknown,
	}
	for raw, want := range cases {
		require.Equal(t, want, ParseRole(raw), raw)
	}
}

func TestRoleUnmarshalNormalizes(t *testing.T) {
	t.Parallel()

	var body struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &body))
	require.Equal(t, RoleSupervisor, body.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"role":"root"}`), &body))
	require.False(t, body.Role.Valid())
}

func TestStaffUserNormalize(t *testing.T) {
	t.Parallel()

	t.Run("supervisor drops faculty and flags", func(t *testing.T) {
		sci := "SCI"
		u := StaffUser{Role: RoleSupervisor, FacultyCode: &sci, Permissions: Permissions{ManageUndergrad: true}}
		require.NoError(t, u.Normalize())
		require.Nil(t, u.FacultyCode)
		require.Equal(t, Permissions{}, u.Permissions)
	})

	t.Run("professor needs a faculty", func(t *testing.T) {
		blank := "  "
		require.ErrorIs(t, (&StaffUser{Role: RoleProfessor}).Normalize(), ErrInvalidInput)
		require.ErrorIs(t, (&StaffUser{Role: RoleProfessor, FacultyCode: &blank}).Normalize(), ErrInvalidInput)

		code := " ENG "
		u := StaffUser{Role: RoleProfessor, FacultyCode: &code}
		require.NoError(t, u.Normalize())
		require.Equal(t, "ENG", u.Faculty())
	})

	t.Run("graduate and unknown roles are not staff roles", func(t *testing.T) {
		require.ErrorIs(t, (&StaffUser{Role: RoleGraduate}).Normalize(), ErrInvalidInput)
		require.ErrorIs(t, (&StaffUser{}).Normalize(), ErrInvalidInput)
	})
}

func TestGraduateLoginCredentials(t *testing.T) {
	t.Parallel()

	id, secret := GraduateLoginRequest{Username: "6401001", Password: "110"}.Credentials()
	require.Equal(t, "6401001", id)
	require.Equal(t, "110", secret)

	id, secret = GraduateLoginRequest{StudentID: "a", Secret: "b", Username: "c", Password: "d"}.Credentials()
	require.Equal(t, "a", id)
	require.Equal(t, "b", secret)
}

func TestAuditQueryNormalized(t *testing.T) {
	t.Parallel()

	q := AuditQuery{Page: -1, Limit: 1000}.Normalized()
	require.Equal(t, 1, q.Page)
	require.Equal(t, MaxAuditLimit, q.Limit)
	require.Equal(t, DefaultAuditLimit, AuditQuery{}.Normalized().Limit)

	require.Equal(t, Meta{Page: 1, Limit: 10, Total: 21, TotalPages: 3}, NewMeta(1, 10, 21))
}

func TestAuditQueryWithin(t *testing.T) {
	t.Parallel()
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	q := AuditQuery{Since: since, Until: until}
	require.True(t, q.Within(since))
	require.True(t, q.Within(until.Add(-time.Second)))
	require.False(t, q.Within(until))
	require.False(t, q.Within(since.Add(-time.Second)))
	require.True(t, AuditQuery{}.Within(time.Time{}))
}
