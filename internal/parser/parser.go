package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the parsed AST and original SQL.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string
}

// Statement is one top-level statement of a parsed body.
type Statement struct {
	Raw    *pg_query.RawStmt
	Text   string // statement source without the trailing semicolon
	Offset int    // byte offset of the statement in the original SQL
}

// Parse parses a PostgreSQL SQL string and returns the AST.
// Returns an empty result (zero statements) for empty or whitespace-only input.
// Statement locations refer to byte offsets in sql.
func Parse(sql string) (*ParseResult, error) {
	if strings.TrimSpace(sql) == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{
		Stmts: tree.Stmts,
		SQL:   sql,
	}, nil
}

// Statements returns each top-level statement with its source text.
func (r *ParseResult) Statements() []Statement {
	stmts := make([]Statement, 0, len(r.Stmts))

	for _, raw := range r.Stmts {
		start := int(raw.StmtLocation)
		end := len(r.SQL)

		if raw.StmtLen > 0 {
			end = start + int(raw.StmtLen)
		}

		if start > len(r.SQL) || end > len(r.SQL) || start > end {
			continue
		}

		segment := r.SQL[start:end]
		lead := leadingNoise(segment)
		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(segment[lead:]), ";"))

		stmts = append(stmts, Statement{Raw: raw, Text: text, Offset: start + lead})
	}

	return stmts
}

// Split parses sql and returns its statements.
func Split(sql string) ([]Statement, error) {
	result, err := Parse(sql)
	if err != nil {
		return nil, err
	}

	return result.Statements(), nil
}

// StatementAt returns the statement containing the 1-based character
// position reported by the server, as found in an error's Position field.
func StatementAt(sql string, position int) (string, bool) {
	if position <= 0 {
		return "", false
	}

	offset := byteOffset(sql, position-1)

	stmts, err := Split(sql)
	if err != nil || len(stmts) == 0 {
		return "", false
	}

	found := stmts[0]

	for _, s := range stmts {
		start := int(s.Raw.StmtLocation)
		if start > offset {
			break
		}

		found = s
	}

	return found.Text, true
}

// leadingNoise returns the length of the whitespace and comments that
// precede the first token of segment.
func leadingNoise(segment string) int {
	i := 0

	for i < len(segment) {
		rest := segment[i:]

		switch {
		case strings.HasPrefix(rest, "--"):
			nl := strings.IndexByte(rest, '\n')
			if nl < 0 {
				return len(segment)
			}

			i += nl + 1
		case strings.HasPrefix(rest, "/*"):
			closing := strings.Index(rest[2:], "*/")
			if closing < 0 {
				return len(segment)
			}

			i += closing + 4 //nolint:mnd // both comment delimiters
		case strings.ContainsRune(" \t\r\n", rune(rest[0])):
			i++
		default:
			return i
		}
	}

	return i
}

// byteOffset converts a character index into a byte index of s.
func byteOffset(s string, chars int) int {
	if chars >= utf8.RuneCountInString(s) {
		return len(s)
	}

	i := 0
	for pos := range s {
		if i == chars {
			return pos
		}

		i++
	}

	return len(s)
}
