package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migration-runner/internal/lint"
	"github.com/aqasim81/migration-runner/internal/parser"
)

type ruleCase struct {
	name         string
	sql          string
	pgVersion    int
	wantCount    int
	wantSeverity lint.Severity
	wantTable    string
}

func checkSingle(t *testing.T, rule lint.Rule, tc ruleCase) []lint.Finding {
	t.Helper()

	result, err := parser.Parse(tc.sql)
	require.NoError(t, err)
	require.Len(t, result.Stmts, 1)

	pg := tc.pgVersion
	if pg == 0 {
		pg = 14
	}

	return rule.Check(result.Stmts[0], &lint.RuleContext{TargetPGVersion: pg})
}

func runRuleCases(t *testing.T, rule lint.Rule, tests []ruleCase) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := checkSingle(t, rule, tt)
			require.Len(t, findings, tt.wantCount)

			for _, f := range findings {
				require.Equal(t, rule.ID(), f.Rule)
				require.Equal(t, tt.wantSeverity, f.Severity)

				if tt.wantTable != "" {
					require.Equal(t, tt.wantTable, f.Table)
				}
			}
		})
	}
}
