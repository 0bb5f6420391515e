package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error

	// Target is the last resolved element, if any. Advisory only (artifact capture).
	Target Node
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches errors sharing the same category and code, so sentinels work with errors.Is.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// Fatal reports whether the error must abort an attempt sequence instead of being retried.
func (e *ExecutionError) Fatal() bool {
	return e.Category.IsFatal()
}

func (e *ExecutionError) clone() *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    e.Cause,
		Target:   e.Target,
	}
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithTarget returns a copy of the error referencing the given element
func (e *ExecutionError) WithTarget(target Node) *ExecutionError {
	c := e.clone()
	c.Target = target
	return c
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c := e.clone()
	c.Details = merged
	return c
}

// Predefined errors
var (
	// Construction errors
	ErrUnknownKind = &ExecutionError{
		Category: ErrCategoryConstruction,
		Code:     "unknown_kind",
		Message:  "unknown kind",
	}
	ErrUnknownModifier = &ExecutionError{
		Category: ErrCategoryConstruction,
		Code:     "unknown_modifier",
		Message:  "unknown modifier",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConstruction,
		Code:     "missing_required",
		Message:  "missing required field",
	}
	ErrInvalidField = &ExecutionError{
		Category: ErrCategoryConstruction,
		Code:     "invalid_field",
		Message:  "invalid field",
	}

	// Lookup errors
	ErrUnknownType = &ExecutionError{
		Category: ErrCategoryLookup,
		Code:     "unknown_type",
		Message:  "unknown type",
	}

	// Type mismatch errors
	ErrTypeMismatch = &ExecutionError{
		Category: ErrCategoryTypeMismatch,
		Code:     "type_mismatch",
		Message:  "element is not of the required kind",
	}

	// Assertion errors
	ErrElementNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "element_not_found",
		Message:  "element not found",
	}
	ErrMultipleElements = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "multiple_elements",
		Message:  "multiple elements found",
	}
	ErrExpectationFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "expectation_failed",
		Message:  "expectation failed",
	}
	ErrTreeUnavailable = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "tree_unavailable",
		Message:  "UI tree unavailable",
	}
	ErrPositionUnavailable = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "position_unavailable",
		Message:  "scalar control reports no position",
	}

	// Timeout errors
	ErrTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "operation timed out",
	}
)

// IsFatal reports whether err aborts an attempt sequence.
// Errors that are not ExecutionErrors are treated as transient.
func IsFatal(err error) bool {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Fatal()
	}
	return false
}

// CategoryOf returns the category of err, or ErrCategoryNone.
func CategoryOf(err error) ErrorCategory {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return ErrCategoryNone
}

// TargetOf returns the advisory target element carried by err, if any.
func TargetOf(err error) Node {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Target
	}
	return nil
}
