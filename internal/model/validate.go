package model

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxNameLength is the longest flag name accepted by every backend.
const MaxNameLength = 128

// namePattern is the intersection of what SQL keys, NATS KV keys and URL
// path segments accept without escaping.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateName checks a flag name. It returns a *ValidationError when the
// name is empty, too long, or contains characters outside [A-Za-z0-9_-].
func ValidateName(name string) error {
	var ve ValidationError
	switch {
	case name == "":
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	case len(name) > MaxNameLength:
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "name",
			Message: fmt.Sprintf("must be %d characters or fewer, got %d", MaxNameLength, len(name)),
		})
	case !namePattern.MatchString(name):
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "name",
			Message: fmt.Sprintf("invalid value %q (letters, digits, '_' and '-' only)", name),
		})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateFlag checks every field of a record before it is persisted.
func ValidateFlag(f *Flag) error {
	if f == nil {
		return &ValidationError{Errors: []FieldError{{Field: "flag", Message: "is required"}}}
	}
	if err := ValidateName(f.Name); err != nil {
		return err
	}
	if f.UpdatedAt.IsZero() {
		return &ValidationError{Errors: []FieldError{{Field: "updated_at", Message: "is required"}}}
	}
	return nil
}
