package output

// ExitCode represents the numeric exit status of the CLI.
type ExitCode int

const (
	ExitSuccess       ExitCode = 0
	ExitGeneralError  ExitCode = 1
	ExitConfigError   ExitCode = 2
	ExitInputError    ExitCode = 3
	ExitCacheError    ExitCode = 4
	ExitInternalError ExitCode = 10
	ExitSinkError     ExitCode = 11
	ExitInterrupted   ExitCode = 130
)

// codeToExitCode maps structured codes to numeric exit codes.
var codeToExitCode = map[Code]ExitCode{
	// General errors (exit code 1)
	CodeGeneralError:    ExitGeneralError,
	CodeInvalidInput:    ExitGeneralError,
	CodeOperationFailed: ExitGeneralError,
	CodeUsageError:      ExitGeneralError,

	// Config errors (exit code 2)
	CodeConfigNotFound:   ExitConfigError,
	CodeConfigInvalid:    ExitConfigError,
	CodeConfigParseError: ExitConfigError,
	CodeConfigSaveError:  ExitConfigError,

	// Input errors (exit code 3)
	CodeInputNotFound:   ExitInputError,
	CodeInputReadError:  ExitInputError,
	CodeProgramNotFound: ExitInputError,
	CodeInvalidName:     ExitInputError,
	CodeNoDocumentation: ExitInputError,

	// Cache errors (exit code 4)
	CodeCacheError:      ExitCacheError,
	CodeCacheOpenFailed: ExitCacheError,

	CodeInternalError:  ExitInternalError,
	CodeSinkWriteError: ExitSinkError,
	CodeCancelled:      ExitInterrupted,
}

// exitCodeToCode provides reverse mapping for compatibility helpers.
var exitCodeToCode = map[ExitCode]Code{
	ExitGeneralError:  CodeGeneralError,
	ExitConfigError:   CodeConfigInvalid,
	ExitInputError:    CodeInputNotFound,
	ExitCacheError:    CodeCacheError,
	ExitInternalError: CodeInternalError,
	ExitSinkError:     CodeSinkWriteError,
	ExitInterrupted:   CodeCancelled,
}

// GetExitCode returns the numeric exit code for a structured code.
func (c Code) GetExitCode() ExitCode {
	if exit, ok := codeToExitCode[c]; ok {
		return exit
	}
	return ExitGeneralError
}

// Int returns the integer value of the exit code.
func (e ExitCode) Int() int {
	return int(e)
}

// CodeFromExitCode returns a generic Code for a numeric exit code.
func CodeFromExitCode(exitCode ExitCode) Code {
	if code, ok := exitCodeToCode[exitCode]; ok {
		return code
	}
	return CodeGeneralError
}
