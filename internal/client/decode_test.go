package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-ceremony-portal/internal/auth"
	"go-ceremony-portal/internal/model"
)

func TestDecodeToken(t *testing.T) {
	t.Parallel()
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	info, err := DecodeToken(issueToken(t, model.RoleProfessor, issuedAt))
	require.NoError(t, err)
	assert.Equal(t, "7", info.Subject)
	assert.Equal(t, "someone", info.Name)
	assert.Equal(t, model.RoleProfessor, info.Role)
	assert.Equal(t, auth.KindStaff, info.Kind)
	assert.True(t, info.ExpiresAt.Equal(issuedAt.Add(time.Hour)))

	assert.False(t, info.Expired(issuedAt.Add(59*time.Minute)))
	assert.True(t, info.Expired(issuedAt.Add(time.Hour)), "a token is dead at its expiry instant")

	graduate, err := DecodeToken(issueToken(t, model.RoleGraduate, issuedAt))
	require.NoError(t, err)
	assert.Equal(t, auth.KindGraduate, graduate.Kind)
	assert.True(t, graduate.ExpiresAt.Equal(issuedAt.Add(8*time.Hour)))
}

func TestDecodeTokenMalformed(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "abc", "a.b.c", "not-a-jwt.at-all"} {
		_, err := DecodeToken(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, raw)
	}
}

func TestTokenInfoWithoutExpiryIsExpired(t *testing.T) {
	t.Parallel()
	assert.True(t, TokenInfo{}.Expired(time.Now()))
}
