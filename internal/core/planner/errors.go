package planner

import (
	"fmt"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/assignment"
)

// FieldError is a single rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a write is rejected before reaching the store
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when no field was rejected
func (e *ValidationError) err() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// QuotaError lists the devices a room write would overdraw
type QuotaError struct {
	Overdrawn []assignment.Usage `json:"overdrawn"`
}

func (e *QuotaError) Error() string {
	ids := make([]string, len(e.Overdrawn))
	for i, u := range e.Overdrawn {
		ids[i] = fmt.Sprintf("%s (%d/%d)", u.DeviceID, u.Used, u.Owned)
	}
	return assignment.ErrQuotaExceeded.Error() + ": " + strings.Join(ids, ", ")
}

func (e *QuotaError) Unwrap() error {
	return assignment.ErrQuotaExceeded
}
