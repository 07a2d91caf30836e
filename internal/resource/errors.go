package resource

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by stores when the identified row does not exist
// or is soft-deleted.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by stores when a write violates a uniqueness
// constraint that validation did not catch.
var ErrConflict = errors.New("conflict")

// NonFieldErrors is the key cross-field validation messages are reported under.
const NonFieldErrors = "non_field_errors"

// ValidationError maps field names to one or more human-readable messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add appends msg to field's messages.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// FieldError builds a ValidationError with a single message.
func FieldError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

// NotFoundError is returned when an identifier does not resolve to a live resource.
type NotFoundError struct {
	Resource string
	ID       int64
	Detail   string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.ID == 0 {
		return fmt.Sprintf("%s: not found", e.Resource)
	}
	return fmt.Sprintf("%s %d: not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PersistenceError wraps a storage failure. It is never retried.
type PersistenceError struct {
	Resource string
	Op       string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Resource, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// AuthorizationError reports a caller lacking permission. Authenticated
// distinguishes 403 (known caller) from 401 (anonymous caller).
type AuthorizationError struct {
	Authenticated bool
	Reason        string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Authenticated {
		return "You do not have permission to perform this action."
	}
	return "Authentication credentials were not provided."
}
