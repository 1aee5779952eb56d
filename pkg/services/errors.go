// Package services provides the application services over persistence:
// automation management, the dedup/pause gate and the trigger selector.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. Validation errors map to 400 responses,
// not-found errors to 404.
var (
	ErrEmptyConversationID  = errors.New("conversation ID cannot be empty")
	ErrEmptyOrganizationID  = errors.New("organization ID cannot be empty")
	ErrInvalidPauseDuration = errors.New("invalid pause duration")
	ErrAutomationNameShort  = errors.New("automation name is too short")
	ErrAutomationNil        = errors.New("automation cannot be nil")
	ErrNoTriggerNode        = errors.New("automation must declare a trigger node or trigger type")
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

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

// IsValidationError checks if an error should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyConversationID) ||
		errors.Is(err, ErrEmptyOrganizationID) ||
		errors.Is(err, ErrInvalidPauseDuration) ||
		errors.Is(err, ErrAutomationNameShort) ||
		errors.Is(err, ErrAutomationNil) ||
		errors.Is(err, ErrNoTriggerNode)
}
