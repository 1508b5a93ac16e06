package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	log := New(&buf, "json", "info")
	log.Debug("hidden")
	log.Info("login succeeded", "principal_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "login succeeded", line["msg"])
	assert.EqualValues(t, 7, line["principal_id"])
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	t.Run("plain output with attrs and groups", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).WithoutColors()
		log := slog.New(h).With("request_id", "abc").WithGroup("auth")

		log.Warn("access denied", "resource", "users", "took", 1500*time.Millisecond, "error", "role may not delete users")

		out := buf.String()
		assert.Contains(t, out, "WARN  access denied")
		assert.Contains(t, out, " request_id=abc")
		assert.Contains(t, out, " auth.resource=users")
		assert.Contains(t, out, " auth.took=1.5s")
		assert.Contains(t, out, ` auth.error="role may not delete users"`)
		assert.NotContains(t, out, "\033[")
	})

	t.Run("level filter", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

		log.Info("quiet")
		assert.Empty(t, buf.String())

		log.Error("loud")
		assert.Contains(t, buf.String(), red)
	})
}
