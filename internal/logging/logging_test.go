package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/logging"
)

func TestNew_jsonMasksSensitiveAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(&buf, "json", false)

	logger.Info("connecting",
		slog.String("database_url", "postgres://u:pw@h/db"),
		slog.String("api_token", "abcd"),
		slog.Int("auth_attempts", 3),
		slog.String("target", "postgres://admin:s3cret@db:5432/app"),
		slog.String("version", "001"),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "[MASKED:20]", entry["database_url"])
	assert.Equal(t, "[MASKED:4]", entry["api_token"])
	assert.Equal(t, "[MASKED]", entry["auth_attempts"])
	assert.Equal(t, "postgres://admin:***@db:5432/app", entry["target"])
	assert.Equal(t, "001", entry["version"])
	assert.NotContains(t, buf.String(), "s3cret")
}

func TestNew_levels(t *testing.T) {
	t.Parallel()

	var quiet, verbose bytes.Buffer

	logging.New(&quiet, "text", false).Debug("hidden")
	logging.New(&verbose, "text", true).Debug("shown")

	assert.Empty(t, quiet.String())
	assert.Contains(t, verbose.String(), "msg=shown")
}

func TestIsSensitive(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"password":        true,
		"DB_PASSWORD":     true,
		"client_secret":   true,
		"algolia_api_key": true,
		"Authorization":   true,
		"database_url":    true,
		"version":         false,
		"run_id":          false,
		"duration_ms":     false,
	}

	for key, want := range tests {
		assert.Equal(t, want, logging.IsSensitive(key), key)
	}
}
