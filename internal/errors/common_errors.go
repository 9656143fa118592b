package errors

import (
	"fmt"
)

// ErrorType classifies an AppError. It is written verbatim into report
// sections, so the values are part of the JSON output.
type ErrorType string

const (
	// ErrTypeValidation rejects malformed input before any computation.
	ErrTypeValidation ErrorType = "VALIDATION"
	// ErrTypeInsufficientData marks a report section skipped for lack of days
	// or bars; the statistics packages never return it.
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	// ErrTypeNumeric is a per-item failure such as a zero open price.
	ErrTypeNumeric ErrorType = "NUMERIC"
	// ErrTypeParsing is an unreadable row in a bar file.
	ErrTypeParsing  ErrorType = "PARSING"
	ErrTypeStorage  ErrorType = "STORAGE"
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	ErrTypeConfig   ErrorType = "CONFIG"
)

// AppError carries a classified error through the analysis pipeline. Context
// holds structured details such as the offending field.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap exposes Cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext records a structured detail and returns e for chaining
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Field returns the offending field name recorded on a validation error, if any.
func (e *AppError) Field() string {
	if f, ok := e.Context["field"].(string); ok {
		return f
	}
	return ""
}

// NewAppError creates an AppError with an empty context
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewValidationError creates a structural validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewFieldError creates a validation error naming the field and the rejected value.
func NewFieldError(field, message string, value interface{}) *AppError {
	return NewAppError(ErrTypeValidation, fmt.Sprintf("%s: %s", field, message), nil).
		WithContext("field", field).
		WithContext("value", value)
}

// NewInsufficientDataError marks a stage skipped for lack of samples.
func NewInsufficientDataError(message string, have, need int) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil).
		WithContext("have", have).
		WithContext("need", need)
}

// NewNumericError creates an error for a numeric failure inside one item of a batch
func NewNumericError(message string, cause error) *AppError {
	return NewAppError(ErrTypeNumeric, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
