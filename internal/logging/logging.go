// Package logging builds the slog logger used across the CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aqasim81/migration-runner/internal/config"
)

// sensitiveKeys are matched as substrings of lower-cased attribute keys.
var sensitiveKeys = []string{ //nolint:gochecknoglobals // fixed list
	"password", "secret", "token", "key", "auth", "database_url",
}

// New returns a text or JSON logger writing to w. verbose lowers the level
// to DEBUG.
func New(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: Sanitize}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// Sanitize masks attributes whose key looks sensitive and redacts passwords
// embedded in connection strings. It is a slog ReplaceAttr hook.
func Sanitize(_ []string, a slog.Attr) slog.Attr {
	if IsSensitive(a.Key) {
		return slog.String(a.Key, mask(a.Value))
	}

	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if strings.Contains(s, "://") || strings.Contains(strings.ToLower(s), "password=") {
			return slog.String(a.Key, config.RedactDSN(s))
		}
	}

	return a
}

// IsSensitive reports whether an attribute key names a secret.
func IsSensitive(key string) bool {
	lower := strings.ToLower(key)

	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}

	return false
}

func mask(v slog.Value) string {
	if v.Kind() == slog.KindString {
		return fmt.Sprintf("[MASKED:%d]", len(v.String()))
	}

	return "[MASKED]"
}
