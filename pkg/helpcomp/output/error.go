package output

import (
	"encoding/json"
	"fmt"
)

// Error is a failure with a stable code, a message for the user and
// optional metadata. The code decides the process exit status.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// NewError creates a new structured error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new structured error with a formatted message.
func NewErrorf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an error whose message is prefixed to the cause's.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", message, cause),
		Cause:   cause,
	}
}

// WithDetail adds a metadata field to the error and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error for error chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the numeric exit code for CLI use.
func (e *Error) ExitCode() ExitCode {
	return e.Code.GetExitCode()
}

// MarshalJSON includes the exit code next to the error code.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal(&struct {
		*alias
		ExitCode ExitCode `json:"exit_code"`
	}{
		alias:    (*alias)(e),
		ExitCode: e.ExitCode(),
	})
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}
