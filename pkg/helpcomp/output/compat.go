package output

import (
	"errors"
	"fmt"
	"io"
)

// PrintError writes an error message to the given writer and returns the exit code.
func PrintError(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}

	var outErr *Error
	if errors.As(err, &outErr) {
		_, _ = fmt.Fprintf(w, "%s\n", outErr.Message)
		return outErr.ExitCode()
	}

	// For non-output.Error types, print the error and return general error
	_, _ = fmt.Fprintf(w, "%v\n", err)
	return ExitGeneralError
}

// FromExitCode creates an output.Error from a message and numeric exit code.
func FromExitCode(message string, exitCode ExitCode) *Error {
	return NewError(CodeFromExitCode(exitCode), message)
}

// PrintWarning writes a warning to the given writer, for commands that run
// without a Handler.
func PrintWarning(w io.Writer, warn *Warning) {
	_, _ = fmt.Fprintln(w, warn.String())
}
