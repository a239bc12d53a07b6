package cli

import (
	"context"
	"errors"
	"io"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
)

// ExitCode represents the exit code for an error.
// This is an alias to the output package.
type ExitCode = output.ExitCode

// Exit code constants - aliases to output package.
const (
	ExitSuccess       = output.ExitSuccess
	ExitGeneralError  = output.ExitGeneralError
	ExitConfigError   = output.ExitConfigError
	ExitInputError    = output.ExitInputError
	ExitCacheError    = output.ExitCacheError
	ExitInternalError = output.ExitInternalError
	ExitSinkError     = output.ExitSinkError
	ExitInterrupted   = output.ExitInterrupted
)

// Error represents a CLI error with an exit code, for failures that have
// no structured code of their own (flag validation and the like).
type Error struct {
	Message  string
	ExitCode ExitCode
}

// NewError creates a new CLI error.
// For new code, prefer output.NewError with a structured code.
func NewError(message string, code ExitCode) *Error {
	return &Error{
		Message:  message,
		ExitCode: code,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// PrintError prints an error to w and returns the exit code.
// Handles output.Error, Error and cancellation.
func PrintError(w io.Writer, err error) ExitCode {
	var outErr *output.Error
	if err != nil && !errors.As(err, &outErr) {
		var clierr *Error
		switch {
		case errors.As(err, &clierr):
			err = output.FromExitCode(clierr.Message, clierr.ExitCode)
		case errors.Is(err, context.Canceled):
			err = output.NewError(output.CodeCancelled, "interrupted")
		}
	}
	return output.PrintError(w, err)
}
