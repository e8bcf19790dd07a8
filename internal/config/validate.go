// This file adds a lightweight linter/validator for Spec values. It performs
// static checks over an assembled Spec and returns a list of issues (errors
// and warnings) that the CLI can surface before any data is read.
//
// Checks that depend on the input file's header (e.g. rename/add/split
// referencing a column that does not exist) happen later, at pipeline build
// time, and are still configuration errors there.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users
	// but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Spec.
//
// Path is a dotted path into the configuration (e.g. "keep",
// "split[1].delimiter"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Spec. It does not touch the
// filesystem and does not mutate the spec; callers decide whether warnings
// are fatal.
func Validate(s Spec) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Input) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input",
			Message:  "input path must not be empty",
		})
	}

	if len(s.Keep) > 0 && len(s.Drop) > 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "keep",
			Message:  "keep and drop are mutually exclusive; specify at most one",
		})
	}

	if s.Fill != nil && s.DropNA {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "fill",
			Message:  "fill runs before drop-na, so every missing cell is filled and drop-na removes nothing",
		})
	}

	for i, r := range s.Renames {
		if strings.TrimSpace(r.Old) == "" || strings.TrimSpace(r.New) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("rename[%d]", i),
				Message:  "rename requires both an old and a new column name",
			})
		}
	}
	for i, a := range s.Adds {
		if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Source) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("add[%d]", i),
				Message:  "add requires both a new column name and a source column",
			})
		}
	}
	for i, sp := range s.Splits {
		if strings.TrimSpace(sp.Column) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("split[%d].column", i),
				Message:  "split requires a source column",
			})
		}
		if len(sp.Names) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("split[%d].names", i),
				Message:  "split requires at least one new column name",
			})
		}
		if sp.Delimiter == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("split[%d].delimiter", i),
				Message:  "split requires a non-empty delimiter",
			})
		}
	}

	if s.DedupIndex != "" && !s.Dedup {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "dedup-index",
			Message:  "dedup-index has no effect without dedup",
		})
	}

	return issues
}

// HasError reports whether any issue in the slice is severity error.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
