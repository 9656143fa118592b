package errors

import (
	stderrors "errors"
)

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" when none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsValidation reports whether err is a structural validation error
func IsValidation(err error) bool {
	return IsType(err, ErrTypeValidation)
}

// IsNumeric reports whether err is a per-item numeric failure
func IsNumeric(err error) bool {
	return IsType(err, ErrTypeNumeric)
}

// IsInsufficientData reports whether err marks a stage skipped for lack of data
func IsInsufficientData(err error) bool {
	return IsType(err, ErrTypeInsufficientData)
}

// FieldOf returns the field recorded on a validation error in err's chain.
func FieldOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Field()
	}
	return ""
}

// ErrorDetail is the serialisable form of an error attached to a report section.
type ErrorDetail struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Detail converts err into an ErrorDetail; nil in, nil out.
func Detail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &ErrorDetail{
			Type:    appErr.Type,
			Message: appErr.Error(),
			Field:   appErr.Field(),
		}
	}
	return &ErrorDetail{Message: err.Error()}
}
