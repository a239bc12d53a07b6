package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Handler routes results to stdout and diagnostics to stderr. Silent mode
// suppresses warnings, strict mode turns them into errors and JSON mode
// collects them for the envelope.
type Handler struct {
	stdout   io.Writer
	stderr   io.Writer
	silent   bool
	strict   bool
	json     bool
	mu       sync.Mutex
	warnings []*Warning
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSilent sets silent mode (suppress warning output to stderr).
func WithSilent(silent bool) HandlerOption {
	return func(h *Handler) {
		h.silent = silent
	}
}

// WithStrict sets strict mode (warnings become errors).
func WithStrict(strict bool) HandlerOption {
	return func(h *Handler) {
		h.strict = strict
	}
}

// WithJSON sets JSON output mode.
func WithJSON(json bool) HandlerOption {
	return func(h *Handler) {
		h.json = json
	}
}

// NewHandler creates a new output handler with the given writers and options.
func NewHandler(stdout, stderr io.Writer, opts ...HandlerOption) *Handler {
	h := &Handler{
		stdout:   stdout,
		stderr:   stderr,
		warnings: make([]*Warning, 0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Warn records a warning and prints it unless silent or in JSON mode.
// Safe for concurrent use. Returns an error in strict mode.
func (h *Handler) Warn(w *Warning) error {
	h.mu.Lock()
	h.warnings = append(h.warnings, w)
	h.mu.Unlock()

	if h.strict {
		return w.ToError()
	}

	if !h.silent && !h.json {
		_, _ = fmt.Fprintf(h.stderr, "warning: %s\n", w.Message)
	}

	return nil
}

// Warnf creates and emits a warning with a formatted message.
func (h *Handler) Warnf(code Code, format string, args ...any) error {
	return h.Warn(NewWarningf(code, format, args...))
}

// Error emits an error to stderr (text mode only).
func (h *Handler) Error(e *Error) {
	if h.json {
		return
	}
	_, _ = fmt.Fprintf(h.stderr, "%s\n", e.Message)
}

// Success emits a status message to stderr unless silent, keeping stdout
// for the generated script.
func (h *Handler) Success(message string) {
	if !h.json && !h.silent {
		_, _ = fmt.Fprintf(h.stderr, "%s\n", message)
	}
}

// Successf emits a formatted status message.
func (h *Handler) Successf(format string, args ...any) {
	h.Success(fmt.Sprintf(format, args...))
}

// WriteData writes raw output to stdout (text mode only).
func (h *Handler) WriteData(data string) error {
	if h.json {
		return nil
	}
	_, err := io.WriteString(h.stdout, data)
	return err
}

// WriteLine writes a line of output to stdout (text mode only).
func (h *Handler) WriteLine(message string) {
	if !h.json {
		if !strings.HasSuffix(message, "\n") {
			message += "\n"
		}
		_, _ = fmt.Fprint(h.stdout, message)
	}
}

// WriteJSON writes the JSON envelope with collected warnings and optional error.
func (h *Handler) WriteJSON(data any, err *Error) error {
	env := NewEnvelope(data)
	env.AddWarnings(h.GetWarnings())
	if err != nil {
		env.SetError(err)
	}
	return env.WriteTo(h.stdout, true)
}

// GetWarnings returns a copy of the collected warnings.
func (h *Handler) GetWarnings() []*Warning {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Warning(nil), h.warnings...)
}

// WarningCount returns the number of collected warnings.
func (h *Handler) WarningCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.warnings)
}

// IsJSON returns whether JSON mode is enabled.
func (h *Handler) IsJSON() bool {
	return h.json
}

// IsSilent returns whether silent mode is enabled.
func (h *Handler) IsSilent() bool {
	return h.silent
}

// IsStrict returns whether strict mode is enabled.
func (h *Handler) IsStrict() bool {
	return h.strict
}

// Stdout returns the stdout writer.
func (h *Handler) Stdout() io.Writer {
	return h.stdout
}

// Stderr returns the stderr writer.
func (h *Handler) Stderr() io.Writer {
	return h.stderr
}
