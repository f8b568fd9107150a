package domain

import (
	"maps"
	"slices"
	"strings"
)

// FieldErrors maps a field name to a human-readable message.
type FieldErrors map[string]string

// ValidationError is returned when input violates one or more field constraints.
// No mutation has been applied when it is returned.
type ValidationError struct {
	Message string
	Fields  FieldErrors
}

// NewValidationError creates a validation error with the given fields.
func NewValidationError(message string, fields FieldErrors) *ValidationError {
	if fields == nil {
		fields = FieldErrors{}
	}
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}
