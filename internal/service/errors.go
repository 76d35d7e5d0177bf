package service

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when the referenced product does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrAttributeSkipped reports that the attribute registry dropped an attribute
// under AttributeModeTolerant. Callers leave it out of the assignment set.
var ErrAttributeSkipped = errors.New("attribute skipped")

// ValidationError carries per-field rule violations (field → rule tag).
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// ConflictError is a unique-constraint violation surfaced at write time,
// typically two requests racing for the same SKU.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError hides a storage failure behind a generic message.
// The cause stays reachable through Unwrap for logging.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return "failed to " + e.Op }

func (e *PersistenceError) Unwrap() error { return e.Err }
