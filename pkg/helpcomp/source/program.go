package source

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/shlex"
)

var (
	// ErrInvalidName is returned for command names that are unsafe to run.
	ErrInvalidName = errors.New("invalid command name")
	// ErrProgramNotFound is returned when the program is not installed.
	ErrProgramNotFound = errors.New("program not found")

	programPattern    = regexp.MustCompile(`^[A-Za-z0-9_.+@~/\\:-]+$`)
	subcommandPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:+-]*$`)
)

// ValidatePath checks a command path before anything is executed: the
// program may be a bare name or a file path, every further element must be
// a plain subcommand word.
func ValidatePath(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty command", ErrInvalidName)
	}
	prog := path[0]
	if strings.HasPrefix(prog, "-") || !programPattern.MatchString(prog) {
		return fmt.Errorf("%w: %q", ErrInvalidName, prog)
	}
	for _, word := range path[1:] {
		if !subcommandPattern.MatchString(word) {
			return fmt.Errorf("%w: subcommand %q", ErrInvalidName, word)
		}
	}
	return nil
}

// ParseCommand splits a command string such as "git remote" into its
// path using shell word rules.
func ParseCommand(s string) ([]string, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	if err := ValidatePath(words); err != nil {
		return nil, err
	}
	return words, nil
}

// ParseSubcommand splits the "command-subcommand" form (e.g. "git-log")
// at its first dash.
func ParseSubcommand(s string) ([]string, error) {
	cmd, sub, ok := strings.Cut(s, "-")
	if !ok || cmd == "" || sub == "" {
		return nil, fmt.Errorf("%w: %q is not of the form command-subcommand", ErrInvalidName, s)
	}
	path := []string{cmd, sub}
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	return path, nil
}

// DisplayName returns the name completions are registered for: the base
// name of the program.
func DisplayName(prog string) string {
	base := filepath.Base(prog)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".exe") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// ResolveProgram returns the executable for prog, looking it up in PATH
// when it is a bare name.
func ResolveProgram(prog string) (string, error) {
	if strings.ContainsAny(prog, `/\`) {
		if isExecutableFile(prog) {
			return prog, nil
		}
		return "", fmt.Errorf("%w: %s", ErrProgramNotFound, prog)
	}
	path, err := exec.LookPath(prog)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrProgramNotFound, prog)
	}
	return path, nil
}
