package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/migration-runner/internal/database"
)

func TestEmbeddedDriver(t *testing.T) {
	t.Parallel()

	tests := map[string]database.Driver{
		"sqlite://app.db":             database.SQLite,
		"/var/lib/app/app.sqlite":     database.SQLite,
		"postgres://u:p@localhost/db": database.Postgres,
		"host=db dbname=app":          database.Postgres,
		"":                            database.Postgres,
		"mysql://root@localhost/db":   database.Postgres,
	}

	for url, want := range tests {
		t.Run(url, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, want, embeddedDriver(url))
		})
	}
}
