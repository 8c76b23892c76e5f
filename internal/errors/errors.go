// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ErrNotFound reports a missing entity.
type ErrNotFound struct {
	Entity string
	ID     int
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// Helper constructor
func NewNotFound(entity string, id int) error {
	return &ErrNotFound{Entity: entity, ID: id}
}

func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// ErrValidation carries per-field messages.
type ErrValidation struct {
	Fields map[string]string
}

func (e *ErrValidation) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidation(field, msg string) error {
	return &ErrValidation{Fields: map[string]string{field: msg}}
}

// ErrConflict is returned when a unique field is already taken.
type ErrConflict struct {
	Field string
	Value string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("%s %q is already in use", e.Field, e.Value)
}

func NewConflict(field, value string) error {
	return &ErrConflict{Field: field, Value: value}
}
