package output

import (
	"fmt"
	"time"
)

// Warning is a recoverable problem reported alongside a result, such as a
// subcommand whose help could not be read.
type Warning struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewWarning creates a new structured warning with the given code and message.
func NewWarning(code Code, message string) *Warning {
	return &Warning{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewWarningf creates a new warning with a formatted message.
func NewWarningf(code Code, format string, args ...any) *Warning {
	return NewWarning(code, fmt.Sprintf(format, args...))
}

// WithDetail adds a metadata field to the warning and returns it for chaining.
func (w *Warning) WithDetail(key string, value any) *Warning {
	if w.Details == nil {
		w.Details = make(map[string]any)
	}
	w.Details[key] = value
	return w
}

// ToError converts the warning into an error, used in strict mode.
func (w *Warning) ToError() *Error {
	return &Error{
		Code:    CodeGeneralError,
		Message: w.Message,
		Details: map[string]any{"warning_code": w.Code},
	}
}

// String returns a human-readable representation of the warning.
func (w *Warning) String() string {
	return fmt.Sprintf("warning: %s", w.Message)
}
