// Package rules holds the built-in re-run safety rules.
package rules

import "github.com/aqasim81/migration-runner/internal/lint"

// NewDefaultRegistry returns a Registry with all built-in rules.
func NewDefaultRegistry() *lint.Registry {
	r := lint.NewRegistry()
	r.Register(NewCreateTableRule())
	r.Register(NewCreateIndexRule())
	r.Register(NewAddColumnGuardRule())
	r.Register(NewAddColumnDefaultRule())
	r.Register(NewDropRule())
	r.Register(NewUnboundedUpdateRule())

	return r
}
