//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-ceremony-portal/internal/app"
	"go-ceremony-portal/internal/config"
	"go-ceremony-portal/internal/database"
	"go-ceremony-portal/internal/model"
)

const (
	rootUsername = "integration-root"
	rootPassword = "integration-pass"
)

// integrationConfig points the portal at DATABASE_URL. The database is
// wiped, so use a dedicated one.
func integrationConfig(t *testing.T) *config.Config {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL is not set")
	}

	return &config.Config{
		ServerPort:              "0",
		RequestTimeout:          10 * time.Second,
		JWTSecret:               "integration-secret",
		JWTIssuer:               "ceremony-portal",
		TokenStaffTTL:           time.Hour,
		TokenGraduateTTL:        8 * time.Hour,
		StoreDriver:             config.StoreDriverPostgres,
		DatabaseURL:             url,
		DBMaxConns:              4,
		DBMinConns:              1,
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		CORSOrigins:             []string{"*"},
		RateLimitRPM:            1000,
		RevocationSweepInterval: time.Minute,
		PasswordHashCost:        bcrypt.MinCost,
		BootstrapAdminUsername:  rootUsername,
		BootstrapAdminPassword:  rootPassword,
	}
}

func resetDatabase(t *testing.T, url string) {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.Options{URL: url})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx,
		`TRUNCATE diplomas, graduates, faculties, users, revoked_tokens, audit_entries RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// newPortal starts a portal on a clean database and returns it with a
// Supervisor token.
func newPortal(t *testing.T, mutate func(*config.Config)) (*httptest.Server, string) {
	t.Helper()

	cfg := integrationConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	resetDatabase(t, cfg.DatabaseURL)

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	server := httptest.NewServer(a.Handler())
	t.Cleanup(server.Close)

	token := login(t, server.URL, "/api/v1/auth/login/staff",
		model.StaffLoginRequest{Username: rootUsername, Password: rootPassword})
	return server, token
}

func login(t *testing.T, baseURL string, path string, payload any) string {
	t.Helper()

	resp := doRequest(t, mustNewRequest(t, http.MethodPost, baseURL+path, mustJSON(t, payload)))
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed model.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.True(t, parsed.Success)
	require.NotEmpty(t, parsed.Token)
	return parsed.Token
}

// createAs posts payload and decodes the data envelope into out.
func createAs(t *testing.T, url string, token string, payload any, out any) {
	t.Helper()

	resp := doAuthJSONRequest(t, http.MethodPost, url, mustJSON(t, payload), token)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	if out != nil {
		envelope := struct {
			Data any `json:"data"`
		}{Data: out}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return body
}

func newAuthRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Request {
	t.Helper()

	req := mustNewRequest(t, method, url, body)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return req
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func doAuthJSONRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Response {
	t.Helper()

	req := newAuthRequest(t, method, url, body, accessToken)
	return doRequest(t, req)
}

func doAuthRequest(t *testing.T, method string, url string, accessToken string) *http.Response {
	t.Helper()

	req := newAuthRequest(t, method, url, nil, accessToken)
	return doRequest(t, req)
}

func mustNewRequest(t *testing.T, method string, url string, body []byte) *http.Request {
	t.Helper()

	var payloadReader *bytes.Reader
	if body == nil {
		payloadReader = bytes.NewReader([]byte{})
	} else {
		payloadReader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, payloadReader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}
