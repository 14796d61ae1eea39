// Package lint reports migration statements that fail or repeat their
// effect when a body is run a second time.
package lint

import (
	"fmt"

	"github.com/aqasim81/migration-runner/internal/migration"
	"github.com/aqasim81/migration-runner/internal/parser"
)

const (
	defaultPGVersion = 14
	statementDisplay = 120
)

// Option configures the Linter.
type Option func(*Linter)

// Linter runs registered rules against parsed migrations.
type Linter struct {
	registry  *Registry
	parseFn   func(string) (*parser.ParseResult, error)
	pgVersion int
}

// New creates a Linter with the given options.
func New(opts ...Option) *Linter {
	l := &Linter{
		registry:  NewRegistry(),
		parseFn:   parser.Parse,
		pgVersion: defaultPGVersion,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(l *Linter) { l.registry = r }
}

// WithPGVersion sets the target PostgreSQL major version.
func WithPGVersion(v int) Option {
	return func(l *Linter) { l.pgVersion = v }
}

// WithParser overrides the SQL parser function.
func WithParser(fn func(string) (*parser.ParseResult, error)) Option {
	return func(l *Linter) { l.parseFn = fn }
}

// Lint parses a single migration and returns all findings.
func (l *Linter) Lint(m *migration.Migration) (*Result, error) {
	parsed, err := l.parseFn(m.UpSQL)
	if err != nil {
		return nil, fmt.Errorf("parsing migration %s: %w", m.Version, err)
	}

	var findings []Finding

	maxSeverity := Safe

	for i, stmt := range parsed.Statements() {
		ctx := &RuleContext{
			Migration:       m,
			TargetPGVersion: l.pgVersion,
			StmtIndex:       i,
		}

		for _, rule := range l.registry.Rules() {
			fs := rule.Check(stmt.Raw, ctx)
			for j := range fs {
				if fs[j].Statement == "" {
					fs[j].Statement = TruncateSQL(stmt.Text, statementDisplay)
				}

				if fs[j].Severity > maxSeverity {
					maxSeverity = fs[j].Severity
				}
			}

			findings = append(findings, fs...)
		}
	}

	return &Result{
		Migration:   m,
		Findings:    findings,
		MaxSeverity: maxSeverity,
	}, nil
}

// LintAll lints multiple migrations and returns a result for each.
func (l *Linter) LintAll(migrations []migration.Migration) ([]Result, error) {
	results := make([]Result, 0, len(migrations))

	for i := range migrations {
		r, err := l.Lint(&migrations[i])
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}
