package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/tracker"
)

func TestNew_returnsNonNil(t *testing.T) {
	t.Parallel()

	// nil pool is accepted at construction time; errors surface on use.
	tr := tracker.New(nil)
	assert.NotNil(t, tr)
	assert.Equal(t, tracker.DefaultTable, tr.Table())
}

func TestNewWithTable(t *testing.T) {
	t.Parallel()

	tr, err := tracker.NewWithTable(nil, "ops.applied_units")
	require.NoError(t, err)
	assert.Equal(t, "ops.applied_units", tr.Table())

	_, err = tracker.NewWithTable(nil, "bad name; DROP TABLE x")
	assert.ErrorIs(t, err, tracker.ErrInvalidTableName)
}

func TestValidateTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{name: "default", table: "schema_migrations"},
		{name: "schema qualified", table: "public.schema_migrations"},
		{name: "leading underscore", table: "_migrations"},
		{name: "empty", table: "", wantErr: true},
		{name: "leading digit", table: "1migrations", wantErr: true},
		{name: "quote", table: `schema"migrations`, wantErr: true},
		{name: "three parts", table: "db.public.migrations", wantErr: true},
		{name: "whitespace", table: "schema migrations", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tracker.ValidateTableName(tt.table)
			if tt.wantErr {
				assert.ErrorIs(t, err, tracker.ErrInvalidTableName)

				return
			}

			assert.NoError(t, err)
		})
	}
}
