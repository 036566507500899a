// Package service holds the order, product and category workflows.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrIntegrity = errors.New("referential integrity failure")
)

// FieldError is a single violated input constraint.
type FieldError struct {
	Field   string `json:"field_name"`
	Message string `json:"message"`
}

// ValidationError lists every violated constraint of one input, not only the first.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid data: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

func notFound(resource string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, resource, id)
}
