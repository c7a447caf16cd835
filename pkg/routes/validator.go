package routes

import (
	"fmt"
	"strings"
)

// ValidationErrorType categorizes route table errors.
type ValidationErrorType string

const (
	// ErrorDuplicateRoute indicates two entries share a pattern.
	ErrorDuplicateRoute ValidationErrorType = "DUPLICATE_ROUTE"

	// ErrorFallbackCount indicates zero or several fallback entries.
	ErrorFallbackCount ValidationErrorType = "FALLBACK_COUNT"

	// ErrorFallbackNotLast indicates the fallback is not the last entry.
	ErrorFallbackNotLast ValidationErrorType = "FALLBACK_NOT_LAST"

	// ErrorEmptyModule indicates an entry without a module id.
	ErrorEmptyModule ValidationErrorType = "EMPTY_MODULE"

	// ErrorInvalidPattern indicates a pattern that is not a canonical path.
	ErrorInvalidPattern ValidationErrorType = "INVALID_PATTERN"
)

// ValidationError describes one problem in a route table.
type ValidationError struct {
	Type    ValidationErrorType
	Message string
	Index   int
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (entry %d)", e.Type, e.Message, e.Index)
}

// MultiValidationError wraps every problem found in a table.
type MultiValidationError struct {
	Errors []ValidationError
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d route validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Has reports whether an error of type typ was found.
func (e *MultiValidationError) Has(typ ValidationErrorType) bool {
	for _, err := range e.Errors {
		if err.Type == typ {
			return true
		}
	}
	return false
}

// Validate checks a route table for duplicates, a single trailing fallback
// and canonical patterns.
// It returns nil or a *MultiValidationError listing every problem.
func Validate(entries []RouteEntry) error {
	var errs []ValidationError
	add := func(typ ValidationErrorType, idx int, format string, args ...any) {
		errs = append(errs, ValidationError{Type: typ, Index: idx, Message: fmt.Sprintf(format, args...)})
	}

	fallbacks := 0
	seen := make(map[string]int)
	for i, e := range entries {
		if e.ModuleID == "" {
			add(ErrorEmptyModule, i, "route %q has no module", e.Pattern)
		}
		if e.IsFallback {
			fallbacks++
			if i != len(entries)-1 {
				add(ErrorFallbackNotLast, i, "fallback must be the last entry")
			}
			continue
		}
		canonical, err := CanonicalizePath(e.Pattern)
		if err != nil || canonical != e.Pattern {
			add(ErrorInvalidPattern, i, "pattern %q is not a canonical path", e.Pattern)
		}
		if prev, dup := seen[e.Pattern]; dup {
			add(ErrorDuplicateRoute, i, "pattern %q already declared by entry %d", e.Pattern, prev)
			continue
		}
		seen[e.Pattern] = i
	}
	if fallbacks != 1 {
		add(ErrorFallbackCount, len(entries), "want exactly one fallback, have %d", fallbacks)
	}

	if len(errs) > 0 {
		return &MultiValidationError{Errors: errs}
	}
	return nil
}
