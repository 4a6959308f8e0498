package bcms

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeReference  ErrorType = "reference"
	ErrorTypeCycle      ErrorType = "cycle"
	ErrorTypeMigration  ErrorType = "migration"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes
const (
	ErrCodePropLengthMismatch = "PROP_LENGTH_MISMATCH"
	ErrCodePropValueMissing   = "PROP_VALUE_MISSING"
	ErrCodePropTypeMismatch   = "PROP_TYPE_MISMATCH"
	ErrCodePropTypeUnknown    = "PROP_TYPE_UNKNOWN"
	ErrCodeGroupNotFound      = "GROUP_NOT_FOUND"
	ErrCodeEntryNotFound      = "ENTRY_NOT_FOUND"
	ErrCodeTemplateNotFound   = "TEMPLATE_NOT_FOUND"
	ErrCodeLanguageNotFound   = "LANGUAGE_NOT_FOUND"
	ErrCodeTemplateMismatch   = "TEMPLATE_MISMATCH"
	ErrCodeInfiniteLoop       = "INFINITE_LOOP"
	ErrCodePropNameDuplicate  = "PROP_NAME_DUPLICATE"
	ErrCodePropNotFound       = "PROP_NOT_FOUND"
	ErrCodeInvalidChange      = "INVALID_CHANGE"
	ErrCodeLookupFailed       = "LOOKUP_FAILED"
)

// PropError is the error value returned by the strict engine paths. Level is
// the dotted path of the offending prop, e.g. "props.gallery.items.2".
type PropError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *PropError) Error() string {
	if e.Level == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] -> %s", e.Level, e.Message)
}

func (e *PropError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to a PropError
func (e *PropError) WithDetail(key string, value any) *PropError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a PropError
func (e *PropError) WithCause(cause error) *PropError {
	e.Cause = cause
	return e
}

// WithLevel sets the path the error refers to
func (e *PropError) WithLevel(level string) *PropError {
	e.Level = level
	return e
}

// NewPropError creates a new PropError
func NewPropError(errorType ErrorType, code, level, message string) *PropError {
	return &PropError{
		Type:    errorType,
		Code:    code,
		Level:   level,
		Message: message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, level, message string) *PropError {
	return NewPropError(ErrorTypeValidation, code, level, message)
}

// NewNotFoundError creates an error for a missing referenced object
func NewNotFoundError(code, level, message string) *PropError {
	return NewPropError(ErrorTypeNotFound, code, level, message)
}

// NewReferenceError creates an error for a reference pointing at the wrong target
func NewReferenceError(code, level, message string) *PropError {
	return NewPropError(ErrorTypeReference, code, level, message)
}

// NewCycleError creates a group-pointer cycle error
func NewCycleError(level, message string) *PropError {
	return NewPropError(ErrorTypeCycle, ErrCodeInfiniteLoop, level, message)
}

// NewMigrationError creates a schema migration error
func NewMigrationError(code, level, message string) *PropError {
	return NewPropError(ErrorTypeMigration, code, level, message)
}

// NewLookupError wraps a collaborator failure
func NewLookupError(level, message string, cause error) *PropError {
	return NewPropError(ErrorTypeInternal, ErrCodeLookupFailed, level, message).WithCause(cause)
}

// AsPropError extracts a *PropError from err.
func AsPropError(err error) (*PropError, bool) {
	var propErr *PropError
	if errors.As(err, &propErr) {
		return propErr, true
	}
	return nil, false
}

// IsPropError reports whether err carries the given error type.
func IsPropError(err error, errorType ErrorType) bool {
	propErr, ok := AsPropError(err)
	return ok && propErr.Type == errorType
}
