// Package source fetches raw documentation for commands: man pages and
// --help output of installed programs, files, standard input and saved
// JSON.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/assemble"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// DefaultTimeout bounds every man or help invocation.
const DefaultTimeout = 5 * time.Second

// ErrNoDocumentation is returned when neither a man page nor help output
// could be obtained.
var ErrNoDocumentation = errors.New("no documentation found")

// Runner executes a program and returns what it wrote.
type Runner interface {
	Run(ctx context.Context, name string, args []string, env []string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args []string, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// ExecProvider obtains documentation by running man and the program
// itself.
type ExecProvider struct {
	runner   Runner
	skipMan  bool
	timeout  time.Duration
	logger   *zap.Logger
	programs map[string]string
	env      []string
}

// ExecOption configures an ExecProvider.
type ExecOption func(*ExecProvider)

// WithRunner replaces process execution, for tests.
func WithRunner(r Runner) ExecOption {
	return func(p *ExecProvider) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithSkipMan disables man page lookup.
func WithSkipMan(skip bool) ExecOption {
	return func(p *ExecProvider) {
		p.skipMan = skip
	}
}

// WithTimeout bounds each invocation.
func WithTimeout(d time.Duration) ExecOption {
	return func(p *ExecProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ExecOption {
	return func(p *ExecProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgram runs executable whenever a path starts with name. It lets a
// command given as a file path be documented under its base name.
func WithProgram(name, executable string) ExecOption {
	return func(p *ExecProvider) {
		p.programs[name] = executable
	}
}

// NewExecProvider returns a provider that runs real programs.
func NewExecProvider(opts ...ExecOption) *ExecProvider {
	p := &ExecProvider{
		runner:   execRunner{},
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
		programs: make(map[string]string),
		env:      quietEnv(os.Environ()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// quietEnv disables pagers and colour so that programs print plain text.
func quietEnv(env []string) []string {
	overrides := map[string]string{
		"PAGER":     "cat",
		"MANPAGER":  "cat",
		"GIT_PAGER": "cat",
		"TERM":      "dumb",
		"NO_COLOR":  "1",
		"MANWIDTH":  "80",
		"COLUMNS":   "80",
	}
	out := make([]string, 0, len(env)+len(overrides))
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	for _, key := range []string{"PAGER", "MANPAGER", "GIT_PAGER", "TERM", "NO_COLOR", "MANWIDTH", "COLUMNS"} {
		out = append(out, key+"="+overrides[key])
	}
	return out
}

// Fetch returns the man page for path (joined with dashes, as in
// "git-log") unless man lookup is disabled, otherwise the output of
// "path --help", falling back to "path -h".
func (p *ExecProvider) Fetch(ctx context.Context, path []string) (assemble.Document, error) {
	if err := ValidatePath(path); err != nil {
		return assemble.Document{}, err
	}

	if !p.skipMan {
		if text, ok := p.man(ctx, strings.Join(path, "-")); ok {
			return assemble.Document{Path: path, Text: text, Kind: model.SourceMan}, nil
		}
	}

	prog := path[0]
	if exe, ok := p.programs[prog]; ok {
		prog = exe
	}
	// Output of a failed invocation is kept only as a last resort: "git
	// commit --help" exits non-zero with an error on stderr while
	// "git commit -h" prints usage.
	var fallback string
	for _, flag := range []string{"--help", "-h"} {
		args := append(append([]string(nil), path[1:]...), flag)
		text, err := p.help(ctx, prog, args)
		if err == nil {
			return assemble.Document{Path: path, Text: text, Kind: model.SourceHelp}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return assemble.Document{}, ctxErr
		}
		p.logger.Debug("help invocation failed",
			zap.String("command", strings.Join(path, " ")),
			zap.String("flag", flag),
			zap.Error(err),
		)
		if fallback == "" {
			fallback = text
		}
	}
	if fallback != "" {
		return assemble.Document{Path: path, Text: fallback, Kind: model.SourceHelp}, nil
	}
	return assemble.Document{}, fmt.Errorf("%w for %s", ErrNoDocumentation, strings.Join(path, " "))
}

func (p *ExecProvider) man(ctx context.Context, page string) (string, bool) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout, _, err := p.runner.Run(runCtx, "man", []string{"-P", "cat", page}, p.env)
	if err != nil || len(bytes.TrimSpace(stdout)) == 0 {
		p.logger.Debug("no man page", zap.String("page", page), zap.Error(err))
		return "", false
	}
	return string(stdout), true
}

// help runs prog with args and returns its stdout, or stderr when stdout
// is empty. A non-zero exit is an error; the output is still returned so
// the caller can fall back to it.
func (p *ExecProvider) help(ctx context.Context, prog string, args []string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout, stderr, err := p.runner.Run(runCtx, prog, args, p.env)
	if runCtx.Err() != nil {
		return "", fmt.Errorf("%s timed out after %s", prog, p.timeout)
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return "", err
	}
	out := stdout
	if len(bytes.TrimSpace(out)) == 0 {
		out = stderr
	}
	if len(bytes.TrimSpace(out)) == 0 {
		if err == nil {
			err = errors.New("empty output")
		}
		return "", err
	}
	return string(out), err
}
