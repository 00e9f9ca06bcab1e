package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when scoring, analysis or optimization receives no projects
	ErrEmptyInput = errors.New("no projects supplied")
	// ErrProjectNotFound is returned by project lookups for unknown IDs
	ErrProjectNotFound = errors.New("project not found")
	// ErrBenchmarkUnavailable wraps failed or timed out benchmark lookups.
	// The scoring engine recovers from it by dropping the affected sub-factor.
	ErrBenchmarkUnavailable = errors.New("benchmark unavailable")
	// ErrOptimizationInfeasible marks constraints that cannot be satisfied jointly.
	// The optimizer recovers from it with an equal-weight allocation flagged as degraded.
	ErrOptimizationInfeasible = errors.New("optimization infeasible")
)

// ValidationError reports a malformed or missing project field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
