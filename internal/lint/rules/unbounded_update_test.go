package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/migration-runner/internal/lint"
	"github.com/aqasim81/migration-runner/internal/lint/rules"
)

func TestUnboundedUpdateRule_ID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unbounded-update", rules.NewUnboundedUpdateRule().ID())
}

func TestUnboundedUpdateRule_Check(t *testing.T) {
	t.Parallel()

	runRuleCases(t, rules.NewUnboundedUpdateRule(), []ruleCase{
		{
			name:         "update without where",
			sql:          "UPDATE experts SET version = 0;",
			wantCount:    1,
			wantSeverity: lint.Low,
			wantTable:    "experts",
		},
		{
			name:      "guarded backfill",
			sql:       "UPDATE experts SET version = 0 WHERE version IS NULL;",
			wantCount: 0,
		},
		{
			name:         "delete without where",
			sql:          "DELETE FROM sessions;",
			wantCount:    1,
			wantSeverity: lint.Low,
			wantTable:    "sessions",
		},
		{
			name:      "delete with where",
			sql:       "DELETE FROM sessions WHERE expires_at < now();",
			wantCount: 0,
		},
		{
			name:      "select ignored",
			sql:       "SELECT 1;",
			wantCount: 0,
		},
	})
}
