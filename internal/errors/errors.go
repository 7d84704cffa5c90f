package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a pipeline failure. Every type is terminal for the
// run: inputs are static files, so retrying cannot change the outcome.
type ErrorType string

const (
	ErrTypeSourceUnreadable    ErrorType = "SOURCE_UNREADABLE"
	ErrTypeSchemaMismatch      ErrorType = "SCHEMA_MISMATCH"
	ErrTypeTypeCoercion        ErrorType = "TYPE_COERCION"
	ErrTypeInsufficientData    ErrorType = "INSUFFICIENT_DATA"
	ErrTypeGranularityMismatch ErrorType = "GRANULARITY_MISMATCH"
	ErrTypeKeyConflict         ErrorType = "KEY_CONFLICT"
	ErrTypeConfig              ErrorType = "CONFIG"
	ErrTypeStorage             ErrorType = "STORAGE"
)

// AppError is the structured error surfaced to the pipeline caller. Context
// identifies the offending table and column so a failing run names what broke
// without the caller parsing message text.
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

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the error type carried by err, unwrapping as needed. The
// second result is false for errors that are not AppErrors.
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsType reports whether err carries the given error type.
func IsType(err error, t ErrorType) bool {
	got, ok := TypeOf(err)
	return ok && got == t
}

// Helper constructors for the pipeline taxonomy. Each attaches the offending
// table/column so callers and logs can point at the data, not just the stage.

// NewSourceUnreadableError reports a source file that is missing, unreadable,
// or not parseable in its declared format.
func NewSourceUnreadableError(source string, cause error) *AppError {
	return NewAppError(ErrTypeSourceUnreadable, fmt.Sprintf("source %q is unreadable", source), cause).
		WithContext("source", source)
}

// NewSchemaMismatchError reports a required column absent from a source header.
func NewSchemaMismatchError(source, column string) *AppError {
	return NewAppError(ErrTypeSchemaMismatch, fmt.Sprintf("source %q is missing required column %q", source, column), nil).
		WithContext("source", source).
		WithContext("column", column)
}

// NewTypeCoercionError reports a value that does not parse under the column's
// declared type.
func NewTypeCoercionError(source, column, value string, cause error) *AppError {
	return NewAppError(ErrTypeTypeCoercion, fmt.Sprintf("source %q column %q: value %q does not coerce", source, column, value), cause).
		WithContext("source", source).
		WithContext("column", column).
		WithContext("value", value)
}

// NewInsufficientDataError reports a column that cannot be imputed because it
// has no present values to derive from.
func NewInsufficientDataError(source, column, strategy string) *AppError {
	return NewAppError(ErrTypeInsufficientData, fmt.Sprintf("source %q column %q: no present values to impute with strategy %q", source, column, strategy), nil).
		WithContext("source", source).
		WithContext("column", column).
		WithContext("strategy", strategy)
}

// NewGranularityMismatchError reports a resample that would have to invent
// rows: the table's unit is coarser than the target.
func NewGranularityMismatchError(source, from, to string) *AppError {
	return NewAppError(ErrTypeGranularityMismatch, fmt.Sprintf("source %q at %s cannot be disaggregated to %s", source, from, to), nil).
		WithContext("source", source).
		WithContext("from_unit", from).
		WithContext("to_unit", to)
}

// NewKeyConflictError reports a join-key declaration that does not hold: a
// declared primary key column absent from the peer table, or duplicate key
// tuples where uniqueness is required.
func NewKeyConflictError(column, table, peer string, message string) *AppError {
	return NewAppError(ErrTypeKeyConflict, message, nil).
		WithContext("column", column).
		WithContext("table", table).
		WithContext("peer", peer)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError reports a failure writing pipeline artifacts.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}
