// Package model defines the intermediate representation of a command-line
// interface extracted from help text or man pages.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// SourceKind records where a Command's documentation came from.
type SourceKind string

const (
	SourceHelp  SourceKind = "help"
	SourceMan   SourceKind = "man"
	SourceFile  SourceKind = "file"
	SourceStdin SourceKind = "stdin"
	SourceJSON  SourceKind = "json"
)

// ValueHint classifies the argument an option expects.
type ValueHint string

const (
	HintNone   ValueHint = ""
	HintFile   ValueHint = "file"
	HintDir    ValueHint = "dir"
	HintString ValueHint = "string"
	HintNumber ValueHint = "number"
)

// IsPath reports whether the hint asks for filesystem completion.
func (h ValueHint) IsPath() bool {
	return h == HintFile || h == HintDir
}

// Option is a single flag together with its aliases.
type Option struct {
	Short       string    // single-character form, e.g. "-f"
	Long        string    // multi-character form, e.g. "--file" or "-name"
	Aliases     []string  // additional forms listed on the same line
	TakesValue  bool      // a placeholder follows the flag
	ValueName   string    // placeholder text without brackets, e.g. "FILE"
	ValueHint   ValueHint // kind of value expected
	Description string
	HasDefault  bool
	Default     string
}

// OptionKey identifies an option after alias resolution.
type OptionKey struct {
	Short string
	Long  string
}

// Key returns the (short, long) pair used for deduplication.
func (o Option) Key() OptionKey {
	return OptionKey{Short: o.Short, Long: o.Long}
}

// Names returns every spelling of the option, short form first.
func (o Option) Names() []string {
	names := make([]string, 0, 2+len(o.Aliases))
	if o.Short != "" {
		names = append(names, o.Short)
	}
	if o.Long != "" {
		names = append(names, o.Long)
	}
	return append(names, o.Aliases...)
}

// IsOldStyle reports whether the long form uses a single dash (e.g. "-name").
func (o Option) IsOldStyle() bool {
	return o.Long != "" && !strings.HasPrefix(o.Long, "--")
}

// Positional is a non-flag argument taken from a usage line.
type Positional struct {
	Name        string
	Description string
	Required    bool
	Variadic    bool
}

// Command is the root of the IR. Subcommands preserve insertion order and
// carry unique names.
type Command struct {
	Name        string
	Description string
	Usage       string
	Source      SourceKind
	Options     []Option
	Positionals []Positional
	Subcommands []*Command
}

// NewCommand returns an empty Command for the given name and source.
func NewCommand(name string, source SourceKind) *Command {
	return &Command{
		Name:   name,
		Source: source,
	}
}

// Subcommand returns the direct child with the given name, if any.
func (c *Command) Subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub != nil && sub.Name == name {
			return sub
		}
	}
	return nil
}

// AddSubcommand appends a child, or replaces an existing child of the same
// name in place.
func (c *Command) AddSubcommand(sub *Command) {
	for i, existing := range c.Subcommands {
		if existing != nil && existing.Name == sub.Name {
			c.Subcommands[i] = sub
			return
		}
	}
	c.Subcommands = append(c.Subcommands, sub)
}

// SubcommandNames lists direct children in order.
func (c *Command) SubcommandNames() []string {
	names := make([]string, 0, len(c.Subcommands))
	for _, sub := range c.Subcommands {
		names = append(names, sub.Name)
	}
	return names
}

// Nest places cmd under empty parents named by the leading elements of
// path, so that completion registers for path[0]. cmd is returned as is
// for a single-element path.
func Nest(path []string, cmd *Command) *Command {
	for i := len(path) - 2; i >= 0; i-- {
		parent := NewCommand(path[i], cmd.Source)
		parent.AddSubcommand(cmd)
		cmd = parent
	}
	return cmd
}

// Depth returns the number of populated subcommand levels below c.
func (c *Command) Depth() int {
	deepest := 0
	for _, sub := range c.Subcommands {
		if d := sub.Depth() + 1; d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Walk visits c and every descendant depth-first, passing the command path
// from the root.
func (c *Command) Walk(fn func(path []string, cmd *Command)) {
	c.walk(nil, fn)
}

func (c *Command) walk(parent []string, fn func([]string, *Command)) {
	path := make([]string, len(parent)+1)
	copy(path, parent)
	path[len(parent)] = c.Name
	fn(path, c)
	for _, sub := range c.Subcommands {
		sub.walk(path, fn)
	}
}

// ErrInvalidCommand is returned when a Command violates a structural
// invariant of the IR.
var ErrInvalidCommand = errors.New("invalid command")

// Validate checks the structural invariants of the tree rooted at c.
func (c *Command) Validate() error {
	return c.validate(c.Name)
}

func (c *Command) validate(path string) error {
	for i, opt := range c.Options {
		if opt.Short == "" && opt.Long == "" {
			return fmt.Errorf("%w: %s: option %d has neither a short nor a long form", ErrInvalidCommand, path, i)
		}
	}
	for i, pos := range c.Positionals {
		if pos.Name == "" {
			return fmt.Errorf("%w: %s: positional %d has no name", ErrInvalidCommand, path, i)
		}
	}
	seen := make(map[string]bool, len(c.Subcommands))
	for _, sub := range c.Subcommands {
		if sub == nil {
			return fmt.Errorf("%w: %s: nil subcommand", ErrInvalidCommand, path)
		}
		if sub.Name == "" {
			return fmt.Errorf("%w: %s: subcommand with empty name", ErrInvalidCommand, path)
		}
		if seen[sub.Name] {
			return fmt.Errorf("%w: %s: duplicate subcommand %q", ErrInvalidCommand, path, sub.Name)
		}
		seen[sub.Name] = true
		if err := sub.validate(path + " " + sub.Name); err != nil {
			return err
		}
	}
	return nil
}
