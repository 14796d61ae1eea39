package lint

import (
	"fmt"
	"strings"
)

// Severity represents how likely a statement is to fail when re-run.
type Severity int

const (
	// Safe indicates no finding.
	Safe Severity = iota
	// Low indicates a statement that repeats its effect on re-run.
	Low
	// Medium indicates a statement that fails on re-run.
	Medium
	// High indicates a statement that also rewrites the table.
	High
	// Critical is reserved for findings that lose data.
	Critical
)

// String returns the uppercase label for the severity level.
func (s Severity) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity parses a label such as "medium" or "HIGH".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SAFE":
		return Safe, nil
	case "LOW":
		return Low, nil
	case "MEDIUM":
		return Medium, nil
	case "HIGH":
		return High, nil
	case "CRITICAL":
		return Critical, nil
	default:
		return Safe, fmt.Errorf("unknown severity %q", s)
	}
}
