package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-ceremony-portal/internal/app"
	"go-ceremony-portal/internal/client"
	"go-ceremony-portal/internal/config"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func portal(t *testing.T) string {
	t.Helper()
	a, err := app.New(context.Background(), &config.Config{
		ServerPort:              "0",
		RequestTimeout:          5 * time.Second,
		JWTSecret:               "ctl-test-secret",
		JWTIssuer:               "ceremony-portal",
		TokenStaffTTL:           time.Hour,
		TokenGraduateTTL:        8 * time.Hour,
		StoreDriver:             config.StoreDriverMemory,
		CORSOrigins:             []string{"*"},
		RateLimitRPM:            -1,
		RevocationSweepInterval: time.Minute,
		PasswordHashCost:        bcrypt.MinCost,
		BootstrapAdminUsername:  "root",
		BootstrapAdminPassword:  "supervisor-pass",
	})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	out, err := runCmd(t, "s3cret\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret")))

	_, err = runCmd(t, "", "hash-password", "--cost", "99", "x")
	require.Error(t, err)

	_, err = runCmd(t, "", "hash-password")
	require.EqualError(t, err, "password is required")
}

func TestLoginWhoamiLogout(t *testing.T) {
	t.Parallel()
	server := portal(t)
	cachePath := filepath.Join(t.TempDir(), "credentials.json")
	global := []string{"--server", server, "--cache", cachePath}

	_, err := runCmd(t, "", append([]string{"login", "root", "-p", "wrong"}, global...)...)
	require.ErrorContains(t, err, "Invalid username or password")

	out, err := runCmd(t, "supervisor-pass\n", append([]string{"login", "root"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as root")

	cache, err := client.OpenFileCache(cachePath)
	require.NoError(t, err)
	_, ok := cache.Get(client.KeyToken)
	require.True(t, ok)

	out, err = runCmd(t, "", append([]string{"whoami"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Supervisor")
	assert.Contains(t, out, `"username": "root"`)

	out, err = runCmd(t, "", append([]string{"get", "diplomas"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"faculty_code"`)

	out, err = runCmd(t, "", append([]string{"logout"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = runCmd(t, "", append([]string{"whoami", "--offline"}, global...)...)
	require.EqualError(t, err, "not logged in")
}

func TestGraduateLoginFlag(t *testing.T) {
	t.Parallel()
	server := portal(t)
	global := []string{"--server", server, "--cache", filepath.Join(t.TempDir(), "credentials.json")}

	out, err := runCmd(t, "", append([]string{"login", "--graduate", "6402001", "-p", "AA1234567"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Graduate")

	out, err = runCmd(t, "", append([]string{"get", "/api/v1/me/diplomas"}, global...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "6402001")
	assert.NotContains(t, out, "6401001")
}
