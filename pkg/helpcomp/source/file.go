package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/assemble"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// ReadFile loads documentation saved to a file. When name is empty the
// command is named after the file, without its extension.
func ReadFile(path, name string) (assemble.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return assemble.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if name == "" {
		name = nameFromFile(path)
	}
	return assemble.Document{Path: []string{name}, Text: string(data), Kind: model.SourceFile}, nil
}

func nameFromFile(path string) string {
	base := filepath.Base(path)
	if trimmed := strings.TrimSuffix(base, filepath.Ext(base)); trimmed != "" {
		return trimmed
	}
	return base
}

// ReadStdin loads documentation piped on standard input.
func ReadStdin(r io.Reader, name string) (assemble.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return assemble.Document{}, fmt.Errorf("failed to read standard input: %w", err)
	}
	if name == "" {
		name = "command"
	}
	return assemble.Document{Path: []string{name}, Text: string(data), Kind: model.SourceStdin}, nil
}

// StdinHasInput reports whether f is a pipe or a regular file rather than
// a terminal or a device such as /dev/null.
func StdinHasInput(f *os.File) bool {
	if f == nil || term.IsTerminal(int(f.Fd())) {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	mode := info.Mode()
	return mode&os.ModeNamedPipe != 0 || mode.IsRegular()
}

// ReadJSON loads a Command saved with the json format.
func ReadJSON(path string) (*model.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cmd, err := model.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return cmd, nil
}
