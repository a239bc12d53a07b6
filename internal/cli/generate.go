package cli

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/assemble"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/cache"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/dispatch"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/generate"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/normalize"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/source"
)

// Request describes one generation run. Exactly one input is used, in
// this order: LoadJSON, File, Subcommand, Command, then standard input.
type Request struct {
	Command    []string // program and optional subcommands
	File       string
	Subcommand string // "git-log" style
	LoadJSON   string
	Name       string // command name for File and stdin input

	Format               generate.Format
	Depth                int
	SkipMan              bool
	BashCompletionCompat bool
	Write                bool
	NoCache              bool

	PreprocessOnly  bool
	ListSubcommands bool
}

// input is a resolved Request: either documentation to assemble or a
// ready Command.
type input struct {
	doc      assemble.Document
	cmd      *model.Command
	provider assemble.Provider
}

// Generate runs a Request and writes the result to stdout, or to the
// completion file with Write.
func (c *CLI) Generate(ctx context.Context, req Request) error {
	if req.Format == "" {
		f, err := generate.ParseFormat(c.config.Format)
		if err != nil {
			return output.Wrap(output.CodeConfigInvalid, err, "invalid format in config")
		}
		req.Format = f
	}
	if req.Depth < 0 {
		return NewError("depth must not be negative", ExitGeneralError)
	}

	in, err := c.resolveInput(ctx, req)
	if err != nil {
		return err
	}

	if req.PreprocessOnly && req.ListSubcommands {
		if err := c.output.Warnf(output.CodeWarnFlagConflict, "--list-subcommands ignored with --preprocess-only"); err != nil {
			return err
		}
	}
	if req.PreprocessOnly {
		if in.cmd != nil {
			return NewError("--preprocess-only needs help text, not a saved command", ExitGeneralError)
		}
		return c.emit(normalize.Dump(normalize.Normalize(in.doc.Text)))
	}

	cmd := in.cmd
	var fp cache.Fingerprint
	useCache := c.cache != nil && !req.NoCache && cmd == nil
	if cmd == nil {
		fp = cache.NewFingerprint(cache.Key{
			Path:    in.doc.Path,
			Depth:   req.Depth,
			SkipMan: req.SkipMan,
			Text:    in.doc.Text,
		})
		if useCache && !req.ListSubcommands {
			if script, ok := c.cache.LookupRendered(ctx, fp, string(req.Format), req.BashCompletionCompat); ok {
				c.logger.Debug("rendered cache hit", zap.String("fingerprint", fp.Short()))
				return c.deliver(in.doc.Program(), req, script)
			}
		}
		if useCache {
			if hit, ok := c.cache.LookupCommand(ctx, fp); ok {
				c.logger.Debug("command cache hit", zap.String("fingerprint", fp.Short()))
				cmd = hit
			}
		}
	}

	if cmd == nil {
		cmd, err = c.assemble(ctx, in, req.Depth)
		if err != nil {
			return err
		}
		if useCache {
			if err := c.cache.StoreCommand(ctx, fp, cmd); err != nil {
				c.logger.Debug("command not cached", zap.Error(err))
			}
		}
	}

	if req.ListSubcommands {
		return c.emit(strings.Join(cmd.SubcommandNames(), "\n") + trailingNewline(cmd.Subcommands))
	}

	if in.cmd == nil {
		// "git commit" completes as a subcommand of git
		cmd = model.Nest(in.doc.Path, cmd)
	}
	script, err := generate.Render(cmd, req.Format, generate.Options{BashCompletionCompat: req.BashCompletionCompat})
	if err != nil {
		if errors.Is(err, generate.ErrInvalidCommand) {
			return output.Wrap(output.CodeInternalError, err, "failed to render completion")
		}
		return output.Wrap(output.CodeInvalidInput, err, "failed to render completion")
	}
	if useCache && ctx.Err() == nil {
		if err := c.cache.StoreRendered(ctx, fp, string(req.Format), req.BashCompletionCompat, script); err != nil {
			c.logger.Debug("script not cached", zap.Error(err))
		}
	}
	return c.deliver(cmd.Name, req, script)
}

func trailingNewline(subs []*model.Command) string {
	if len(subs) == 0 {
		return ""
	}
	return "\n"
}

// resolveInput loads the requested documentation. Missing or unreadable
// help text is not fatal: the run continues with an empty document and a
// warning, so the result is still a valid, if minimal, script.
func (c *CLI) resolveInput(ctx context.Context, req Request) (input, error) {
	switch {
	case req.LoadJSON != "":
		cmd, err := source.ReadJSON(req.LoadJSON)
		if err != nil {
			return input{}, readError(err, "failed to load command")
		}
		if err := c.ignoredName(req, "--loadjson"); err != nil {
			return input{}, err
		}
		return input{cmd: cmd}, nil

	case req.File != "":
		doc, err := source.ReadFile(req.File, req.Name)
		if err != nil {
			return input{}, readError(err, "failed to read help text")
		}
		return input{doc: doc, provider: c.subcommandProvider(req, doc.Path[0], "")}, nil

	case req.Subcommand != "":
		path, err := source.ParseSubcommand(req.Subcommand)
		if err != nil {
			return input{}, output.Wrap(output.CodeInvalidName, err, "invalid --subcommand")
		}
		if err := c.ignoredName(req, "--subcommand"); err != nil {
			return input{}, err
		}
		return c.fetchInput(ctx, req, path)

	case len(req.Command) > 0:
		path, err := source.ParseCommand(strings.Join(req.Command, " "))
		if err != nil {
			return input{}, output.Wrap(output.CodeInvalidName, err, "invalid command")
		}
		if err := c.ignoredName(req, "a command argument"); err != nil {
			return input{}, err
		}
		return c.fetchInput(ctx, req, path)

	case source.StdinHasInput(c.stdin):
		doc, err := source.ReadStdin(c.stdin, req.Name)
		if err != nil {
			return input{}, output.Wrap(output.CodeInputReadError, err, "failed to read help text")
		}
		return input{doc: doc}, nil
	}
	return input{}, NewError("no input: give a command, --file, --subcommand, --loadjson or pipe help text on stdin", ExitGeneralError)
}

// ignoredName warns when --name is given with an input that names itself.
func (c *CLI) ignoredName(req Request, with string) error {
	if req.Name == "" {
		return nil
	}
	return c.output.Warnf(output.CodeWarnFlagIgnored, "--name ignored with %s", with)
}

func readError(err error, msg string) error {
	code := output.CodeInputReadError
	if errors.Is(err, fs.ErrNotExist) {
		code = output.CodeInputNotFound
	}
	return output.Wrap(code, err, msg)
}

func (c *CLI) fetchInput(ctx context.Context, req Request, path []string) (input, error) {
	prog := path[0]
	name := source.DisplayName(prog)
	path = append([]string{name}, path[1:]...)

	exe, err := source.ResolveProgram(prog)
	if err != nil {
		return c.emptyInput(path, err, output.CodeProgramNotFound)
	}
	provider := c.execProvider(req, name, exe)
	doc, err := provider.Fetch(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return input{}, output.Wrap(output.CodeCancelled, ctxErr, "interrupted")
		}
		return c.emptyInput(path, err, output.CodeNoDocumentation)
	}
	in := input{doc: doc}
	if req.Depth > 0 {
		in.provider = provider
	}
	return in, nil
}

// emptyInput continues with an empty document, or fails with code in
// strict mode.
func (c *CLI) emptyInput(path []string, cause error, code output.Code) (input, error) {
	if err := c.output.Warnf(output.CodeWarnEmptyInput, "%v; generating an empty completion", cause); err != nil {
		return input{}, output.Wrap(code, cause, "no usable help text")
	}
	return input{doc: assemble.Document{Path: path, Kind: model.SourceHelp}}, nil
}

// subcommandProvider returns the subcommand documentation source, or nil
// when subcommands can only be recorded by name.
func (c *CLI) subcommandProvider(req Request, name, exe string) assemble.Provider {
	if req.Depth <= 0 {
		return nil
	}
	if exe == "" {
		resolved, err := source.ResolveProgram(name)
		if err != nil {
			c.logger.Debug("subcommands recorded by name only", zap.String("program", name), zap.Error(err))
			return nil
		}
		exe = resolved
	}
	return c.execProvider(req, name, exe)
}

// execProvider runs exe, shown as name, to fetch documentation.
func (c *CLI) execProvider(req Request, name, exe string) *source.ExecProvider {
	opts := []source.ExecOption{
		source.WithSkipMan(req.SkipMan),
		source.WithTimeout(c.config.HelpTimeout),
		source.WithLogger(c.logger.Named("source")),
		source.WithProgram(name, exe),
	}
	if c.runner != nil {
		opts = append(opts, source.WithRunner(c.runner))
	}
	return source.NewExecProvider(opts...)
}

func (c *CLI) assemble(ctx context.Context, in input, depth int) (*model.Command, error) {
	var (
		mu        sync.Mutex
		strictErr error
	)
	degrade := func(path []string, err error) {
		werr := c.output.Warnf(output.CodeWarnSubcommandDegraded,
			"%s: %v; completing the name only", strings.Join(path, " "), err)
		if werr != nil {
			mu.Lock()
			if strictErr == nil {
				strictErr = werr
			}
			mu.Unlock()
		}
	}

	d := dispatch.New(
		dispatch.WithThreshold(c.config.Parallel.Threshold),
		dispatch.WithWorkers(c.config.Parallel.Workers),
		dispatch.WithLogger(c.logger.Named("dispatch")),
	)
	a := assemble.New(
		assemble.WithProvider(in.provider),
		assemble.WithDispatcher(d),
		assemble.WithLogger(c.logger.Named("assemble")),
		assemble.WithDegradeHook(degrade),
	)

	cmd, err := a.Assemble(ctx, in.doc, depth)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return nil, output.Wrap(output.CodeCancelled, ctx.Err(), "interrupted")
	case errors.Is(err, assemble.ErrNoName):
		return nil, output.Wrap(output.CodeInternalError, err, "internal error")
	default:
		return nil, output.Wrap(output.CodeOperationFailed, err, "failed to assemble command")
	}
	if strictErr != nil {
		return nil, strictErr
	}
	return cmd, nil
}

func (c *CLI) emit(text string) error {
	if err := c.output.WriteData(text); err != nil {
		return output.Wrap(output.CodeSinkWriteError, err, "failed to write output")
	}
	return nil
}

// deliver prints script, or with Write stores it where the shell's
// completion loader looks for it.
func (c *CLI) deliver(name string, req Request, script string) error {
	if !req.Write {
		return c.emit(script)
	}
	path := c.xdgPaths.CompletionPath(string(req.Format), req.Format.FileName(name))
	if err := cache.WriteFile(path, []byte(script)); err != nil {
		return output.Wrap(output.CodeSinkWriteError, err, "failed to write completion file").WithDetail("path", path)
	}
	c.output.Successf("wrote %s", path)
	return nil
}
