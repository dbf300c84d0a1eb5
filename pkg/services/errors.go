// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/validation"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// ErrInvalidRequest marks malformed calls (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrWorkflowInvalid marks documents rejected by the structural validator (400 Bad Request).
	ErrWorkflowInvalid = errors.New("workflow is invalid")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRequestError creates an invalid request error with context.
func NewRequestError(op, code, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     ErrInvalidRequest,
	}
}

// ValidationError carries every invariant a candidate workflow violates.
type ValidationError struct {
	Op         string
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		messages[i] = v.Message
	}

	return fmt.Sprintf("%s: %v: %s", e.Op, ErrWorkflowInvalid, strings.Join(messages, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrWorkflowInvalid
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrWorkflowInvalid)
}

// Violations extracts the violation list from a validation error.
func Violations(err error) ([]validation.Violation, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Violations, true
	}

	return nil, false
}
