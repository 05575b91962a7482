package models

import (
	"errors"
	"fmt"
)

// ValidationError reports a required field that is missing or malformed
type ValidationError struct {
	// Field is the document key the error is about, e.g. "applicationId" or "pluginList[2]"
	Field   string
	message string
}

// NewValidationError creates a new validation error for field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
}

// Reason returns the message without the field prefix
func (e *ValidationError) Reason() string {
	return e.message
}

// IsValidationError checks if an error is, or wraps, a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// RangeError reports a numeric invariant violation
type RangeError struct {
	// Field is the document key holding the offending value
	Field string
	// Value is the offending value after defaults were applied
	Value   int
	message string
}

// NewRangeError creates a new range error for field
func NewRangeError(field string, value int, format string, args ...interface{}) *RangeError {
	return &RangeError{
		Field:   field,
		Value:   value,
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *RangeError) Error() string {
	return fmt.Sprintf("range error: %s: %s", e.Field, e.message)
}

// Reason returns the message without the field prefix
func (e *RangeError) Reason() string {
	return e.message
}

// IsRangeError checks if an error is, or wraps, a range error
func IsRangeError(err error) bool {
	var target *RangeError
	return errors.As(err, &target)
}
