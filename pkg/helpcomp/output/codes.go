package output

// Code represents a structured error or warning code.
// These are stable string identifiers for machine-readable error handling.
type Code string

// Error codes - grouped by category
const (
	// General errors (exit code 1)
	CodeGeneralError    Code = "GENERAL_ERROR"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeOperationFailed Code = "OPERATION_FAILED"
	CodeUsageError      Code = "USAGE_ERROR"

	// Config errors (exit code 2)
	CodeConfigNotFound   Code = "CONFIG_NOT_FOUND"
	CodeConfigInvalid    Code = "CONFIG_INVALID"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"
	CodeConfigSaveError  Code = "CONFIG_SAVE_ERROR"

	// Input errors (exit code 3)
	CodeInputNotFound   Code = "INPUT_NOT_FOUND"
	CodeInputReadError  Code = "INPUT_READ_ERROR"
	CodeProgramNotFound Code = "PROGRAM_NOT_FOUND"
	CodeInvalidName     Code = "INVALID_COMMAND_NAME"
	CodeNoDocumentation Code = "NO_DOCUMENTATION"

	// Cache errors (exit code 4)
	CodeCacheError      Code = "CACHE_ERROR"
	CodeCacheOpenFailed Code = "CACHE_OPEN_FAILED"

	// Internal errors (exit code 10)
	CodeInternalError Code = "INTERNAL_ERROR"

	// Output sink errors (exit code 11)
	CodeSinkWriteError Code = "SINK_WRITE_ERROR"

	// Cancellation (exit code 130)
	CodeCancelled Code = "CANCELLED"
)

// Warning codes
const (
	CodeWarnGeneric            Code = "WARN_GENERIC"
	CodeWarnIgnoringConfig     Code = "WARN_IGNORING_CONFIG"
	CodeWarnFlagIgnored        Code = "WARN_FLAG_IGNORED"
	CodeWarnFlagConflict       Code = "WARN_FLAG_CONFLICT"
	CodeWarnEmptyInput         Code = "WARN_EMPTY_INPUT"
	CodeWarnSubcommandDegraded Code = "WARN_SUBCOMMAND_DEGRADED"
	CodeWarnCacheUnavailable   Code = "WARN_CACHE_UNAVAILABLE"
)

// IsWarning returns true if the code is a warning code.
func (c Code) IsWarning() bool {
	switch c {
	case CodeWarnGeneric, CodeWarnIgnoringConfig, CodeWarnFlagIgnored,
		CodeWarnFlagConflict, CodeWarnEmptyInput, CodeWarnSubcommandDegraded,
		CodeWarnCacheUnavailable:
		return true
	default:
		return false
	}
}

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}
