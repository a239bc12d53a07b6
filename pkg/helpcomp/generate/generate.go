// Package generate renders a Command as a shell completion script, JSON or
// a plain listing.
//
// Generators are pure: the same Command and Options always produce the same
// bytes, and the Command is never modified. Features a shell cannot express
// are left out of its script.
package generate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// Format names an output format.
type Format string

const (
	Bash       Format = "bash"
	Zsh        Format = "zsh"
	Fish       Format = "fish"
	PowerShell Format = "powershell"
	Elvish     Format = "elvish"
	Nushell    Format = "nushell"
	JSON       Format = "json"
	Native     Format = "native"
)

var (
	// ErrInvalidCommand reports a Command that violates the IR invariants.
	// It indicates a bug upstream, never bad input.
	ErrInvalidCommand = errors.New("internal error: invalid command")
	// ErrUnknownFormat is returned for an unsupported format name.
	ErrUnknownFormat = errors.New("unknown format")
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{Bash, Zsh, Fish, PowerShell, Elvish, Nushell, JSON, Native}
}

// ParseFormat resolves a format name, accepting common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bash":
		return Bash, nil
	case "zsh":
		return Zsh, nil
	case "fish":
		return Fish, nil
	case "powershell", "pwsh":
		return PowerShell, nil
	case "elvish":
		return Elvish, nil
	case "nushell", "nu":
		return Nushell, nil
	case "json":
		return JSON, nil
	case "native":
		return Native, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// IsShell reports whether the format is a completion script.
func (f Format) IsShell() bool {
	return f != JSON && f != Native && f != ""
}

// FileName returns the conventional completion file name for a command.
func (f Format) FileName(name string) string {
	switch f {
	case Zsh:
		return "_" + name
	case Fish:
		return name + ".fish"
	case Bash:
		return name + ".bash"
	case PowerShell:
		return name + ".ps1"
	case Elvish:
		return name + ".elv"
	case Nushell:
		return name + ".nu"
	case JSON:
		return name + ".json"
	}
	return name + ".txt"
}

// Options tune rendering.
type Options struct {
	// BashCompletionCompat makes the bash script use the bash-completion
	// helpers when present and show descriptions.
	BashCompletionCompat bool
}

// Generator renders one format.
type Generator interface {
	Generate(cmd *model.Command, opts Options) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(cmd *model.Command, opts Options) (string, error)

func (f GeneratorFunc) Generate(cmd *model.Command, opts Options) (string, error) {
	return f(cmd, opts)
}

var generators = map[Format]Generator{
	Bash:       GeneratorFunc(generateBash),
	Zsh:        GeneratorFunc(generateZsh),
	Fish:       GeneratorFunc(generateFish),
	PowerShell: GeneratorFunc(generatePowerShell),
	Elvish:     GeneratorFunc(generateElvish),
	Nushell:    GeneratorFunc(generateNushell),
	JSON:       GeneratorFunc(generateJSON),
	Native:     GeneratorFunc(generateNative),
}

// For returns the generator of a format.
func For(f Format) (Generator, error) {
	g, ok := generators[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return g, nil
}

// Render validates cmd and renders it in format f.
func Render(cmd *model.Command, f Format, opts Options) (string, error) {
	g, err := For(f)
	if err != nil {
		return "", err
	}
	if cmd == nil {
		return "", fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	if cmd.Name == "" {
		return "", fmt.Errorf("%w: command has no name", ErrInvalidCommand)
	}
	if err := cmd.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return g.Generate(cmd, opts)
}

func generateJSON(cmd *model.Command, _ Options) (string, error) {
	data, err := model.Encode(cmd)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
