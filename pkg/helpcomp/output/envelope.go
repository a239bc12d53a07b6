package output

import (
	"encoding/json"
	"io"
)

// Envelope wraps --json output: the payload, the warnings raised while
// producing it and the error that stopped it, if any.
type Envelope struct {
	Data     any        `json:"data,omitempty"`
	Warnings []*Warning `json:"warnings,omitempty"`
	Error    *Error     `json:"error,omitempty"`
}

// NewEnvelope creates a new envelope with the given data.
func NewEnvelope(data any) *Envelope {
	return &Envelope{
		Data:     data,
		Warnings: make([]*Warning, 0),
	}
}

// AddWarnings appends warnings to the envelope.
func (e *Envelope) AddWarnings(warnings []*Warning) {
	e.Warnings = append(e.Warnings, warnings...)
}

// SetError sets the error on the envelope.
func (e *Envelope) SetError(err *Error) {
	e.Error = err
}

// IsSuccess returns true if there is no error.
func (e *Envelope) IsSuccess() bool {
	return e.Error == nil
}

// WriteTo serializes the envelope to a writer as JSON.
func (e *Envelope) WriteTo(w io.Writer, indent bool) error {
	encoder := json.NewEncoder(w)
	if indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(e)
}
