// Package parser turns normalized blocks into partial IR records.
//
// ParseBlock is pure: it depends only on the block it is given, so blocks
// can be parsed in any order or concurrently.
package parser

import (
	"strings"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/normalize"
)

// SubcommandRef is a subcommand listed by its parent.
type SubcommandRef struct {
	Name        string
	Description string
}

// Result holds the records extracted from one block.
type Result struct {
	Block int
	Kind  normalize.BlockKind

	Options     []model.Option
	Subcommands []SubcommandRef
	Positionals []model.Positional // from a usage line
	Arguments   []model.Positional // described entries of an arguments list
	Usage       string
	Text        string // collapsed prose of a FreeText block

	// Leading holds lines that precede the first flag of an option block.
	// They continue the description of the previous block's last option
	// when indented deeper than that option's flag (see LastIndent).
	Leading       []string
	LeadingIndent int
	LastIndent    int
}

// Empty reports whether the block produced no records.
func (r Result) Empty() bool {
	return len(r.Options) == 0 && len(r.Subcommands) == 0 && len(r.Positionals) == 0 &&
		len(r.Arguments) == 0 && len(r.Leading) == 0 && r.Usage == ""
}

// ParseBlock extracts the records of a single block. Unrecognised lines are
// skipped; a malformed block yields an empty result, never an error.
func ParseBlock(b normalize.Block) Result {
	res := Result{Block: b.Index, Kind: b.Kind}
	switch b.Kind {
	case normalize.OptionBlock:
		parseOptionBlock(b.Lines, &res)
	case normalize.SubcommandListBlock:
		parseSubcommandBlock(b.Lines, &res)
	case normalize.UsageBlock:
		parseUsageBlock(b.Lines, &res)
	case normalize.ArgumentListBlock:
		parseArgumentBlock(b.Lines, &res)
	default:
		res.Text = collapse(b.Lines)
	}
	return res
}

func collapse(lines []string) string {
	return strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
}

// splitColumns splits "name   description" at the first run of two or
// more spaces. gap is false when the line has no such run.
func splitColumns(trimmed string) (name, desc string, gap bool) {
	if idx := strings.Index(trimmed, "  "); idx > 0 {
		return trimmed[:idx], strings.TrimSpace(trimmed[idx:]), true
	}
	fields := strings.SplitN(trimmed, " ", 2)
	if len(fields) == 2 {
		return fields[0], strings.TrimSpace(fields[1]), false
	}
	return trimmed, "", false
}
