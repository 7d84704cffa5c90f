package pipeline

import (
	"fmt"
)

// ErrorKind classifies a run error. Every kind is terminal: a failed stage
// is never retried and its dependents are skipped.
type ErrorKind string

const (
	ErrorKindValidation   ErrorKind = "validation"
	ErrorKindDependency   ErrorKind = "dependency"
	ErrorKindExecution    ErrorKind = "execution"
	ErrorKindTimeout      ErrorKind = "timeout"
	ErrorKindCancellation ErrorKind = "cancellation"
	ErrorKindNotFound     ErrorKind = "not_found"
)

// RunError is an error raised while orchestrating a run, carrying the stage
// it occurred in.
type RunError struct {
	Kind    ErrorKind `json:"kind"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *RunError) Error() string {
	if e == nil {
		return "unknown run error"
	}
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Stage, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(stage, message string) *RunError {
	return &RunError{
		Kind:    ErrorKindValidation,
		Stage:   stage,
		Message: message,
	}
}

// NewDependencyError creates a new dependency error
func NewDependencyError(stage, message string) *RunError {
	return &RunError{
		Kind:    ErrorKindDependency,
		Stage:   stage,
		Message: message,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(stage, timeout string) *RunError {
	return &RunError{
		Kind:    ErrorKindTimeout,
		Stage:   stage,
		Message: fmt.Sprintf("stage exceeded timeout of %s", timeout),
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(stage string) *RunError {
	return &RunError{
		Kind:    ErrorKindCancellation,
		Stage:   stage,
		Message: "run was cancelled",
	}
}

// WrapError wraps an error with the stage it occurred in. An existing
// RunError is annotated rather than re-wrapped.
func WrapError(err error, stage, message string) *RunError {
	if err == nil {
		return nil
	}

	if rErr, ok := err.(*RunError); ok {
		if rErr.Stage == "" {
			rErr.Stage = stage
		}
		if message != "" {
			rErr.Message = fmt.Sprintf("%s: %s", message, rErr.Message)
		}
		return rErr
	}

	return &RunError{
		Kind:    ErrorKindExecution,
		Stage:   stage,
		Message: message,
		Cause:   err,
	}
}

// KindOf returns the kind of the error, or ErrorKindExecution for errors
// raised inside a stage.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if rErr, ok := err.(*RunError); ok {
		return rErr.Kind
	}
	return ErrorKindExecution
}

// ErrRunNotFound is returned when a run cannot be found
var ErrRunNotFound = &RunError{
	Kind:    ErrorKindNotFound,
	Message: "run not found",
}
