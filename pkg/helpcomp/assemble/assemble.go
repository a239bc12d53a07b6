// Package assemble builds a Command from raw documentation text by running
// the normalizer and block parser, merging their records and resolving
// subcommands up to a depth limit.
package assemble

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/dispatch"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/normalize"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/parser"
)

// Document is raw documentation for the command at Path.
type Document struct {
	Path []string
	Text string
	Kind model.SourceKind
}

// Name returns the last element of the path.
func (d Document) Name() string {
	if len(d.Path) == 0 {
		return ""
	}
	return d.Path[len(d.Path)-1]
}

// Program returns the first element of the path.
func (d Document) Program() string {
	if len(d.Path) == 0 {
		return ""
	}
	return d.Path[0]
}

// Provider fetches documentation for a command path such as
// ["git", "remote"].
type Provider interface {
	Fetch(ctx context.Context, path []string) (Document, error)
}

// ErrNoName is returned when a document carries no command path.
var ErrNoName = errors.New("document has no command name")

// ErrSameAsParent marks a subcommand whose documentation is identical to
// its parent's, which happens when a program ignores the subcommand.
var ErrSameAsParent = errors.New("subcommand documentation repeats its parent")

// DegradeFunc is called when a subcommand is recorded by name only.
type DegradeFunc func(path []string, err error)

// Assembler turns documents into Commands.
type Assembler struct {
	dispatcher *dispatch.Dispatcher
	provider   Provider
	logger     *zap.Logger
	onDegrade  DegradeFunc
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithProvider sets the source of subcommand documentation. Without one,
// subcommands are recorded by name only.
func WithProvider(p Provider) Option {
	return func(a *Assembler) {
		a.provider = p
	}
}

// WithDispatcher sets the dispatcher used for blocks and subcommands.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(a *Assembler) {
		if d != nil {
			a.dispatcher = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDegradeHook registers a callback for name-only subcommands.
func WithDegradeHook(fn DegradeFunc) Option {
	return func(a *Assembler) {
		a.onDegrade = fn
	}
}

// New returns an Assembler.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.dispatcher == nil {
		a.dispatcher = dispatch.New(dispatch.WithLogger(a.logger))
	}
	return a
}

// Parse normalizes and parses doc without resolving subcommands. It returns
// the merged Command (with no subcommands) and the subcommands it lists.
func (a *Assembler) Parse(ctx context.Context, doc Document) (*model.Command, []parser.SubcommandRef, error) {
	if doc.Name() == "" {
		return nil, nil, ErrNoName
	}
	blocks := normalize.Normalize(doc.Text)
	results, err := dispatch.Map(ctx, a.dispatcher, blocks, func(_ context.Context, _ int, b normalize.Block) (parser.Result, error) {
		return parser.ParseBlock(b), nil
	})
	if err != nil {
		return nil, nil, err
	}
	cmd, refs := Merge(doc.Name(), doc.Kind, results)
	return cmd, refs, nil
}

// Assemble builds the Command for doc. depth is the remaining recursion
// budget: at zero the Command has no subcommands, otherwise every listed
// subcommand is fetched and assembled with depth-1.
func (a *Assembler) Assemble(ctx context.Context, doc Document, depth int) (*model.Command, error) {
	cmd, refs, err := a.Parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	if depth <= 0 || len(refs) == 0 {
		return cmd, nil
	}

	a.logger.Debug("resolving subcommands",
		zap.Strings("path", doc.Path),
		zap.Int("count", len(refs)),
		zap.Int("depth", depth),
	)
	children, err := dispatch.Map(ctx, a.dispatcher, refs, func(ctx context.Context, _ int, ref parser.SubcommandRef) (*model.Command, error) {
		return a.resolve(ctx, doc, ref, depth-1)
	})
	if err != nil {
		return nil, err
	}
	for i, child := range children {
		if child == nil {
			child = nameOnly(refs[i], doc.Kind)
		}
		cmd.AddSubcommand(child)
	}
	return cmd, nil
}

func (a *Assembler) resolve(ctx context.Context, parent Document, ref parser.SubcommandRef, depth int) (*model.Command, error) {
	path := append(slices.Clone(parent.Path), ref.Name)
	if a.provider == nil {
		return nameOnly(ref, parent.Kind), nil
	}

	doc, err := a.provider.Fetch(ctx, path)
	switch {
	case err != nil:
	case strings.TrimSpace(doc.Text) == "":
		err = errors.New("empty documentation")
	case doc.Text == parent.Text:
		err = ErrSameAsParent
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.degrade(path, err)
		return nameOnly(ref, parent.Kind), nil
	}

	doc.Path = path
	child, err := a.Assemble(ctx, doc, depth)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.degrade(path, err)
		return nameOnly(ref, parent.Kind), nil
	}
	if ref.Description != "" {
		child.Description = ref.Description
	}
	return child, nil
}

func (a *Assembler) degrade(path []string, err error) {
	a.logger.Debug("subcommand recorded by name only",
		zap.String("command", strings.Join(path, " ")),
		zap.Error(err),
	)
	if a.onDegrade != nil {
		a.onDegrade(path, err)
	}
}

func nameOnly(ref parser.SubcommandRef, kind model.SourceKind) *model.Command {
	cmd := model.NewCommand(ref.Name, kind)
	cmd.Description = ref.Description
	return cmd
}
