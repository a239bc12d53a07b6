package generate

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// node is a command together with its path from the root.
type node struct {
	path []string
	cmd  *model.Command
}

// nodes lists cmd and its descendants depth-first.
func nodes(cmd *model.Command) []node {
	var out []node
	cmd.Walk(func(path []string, c *model.Command) {
		out = append(out, node{path: path, cmd: c})
	})
	return out
}

// childPath returns a new slice holding path followed by name.
func childPath(path []string, name string) []string {
	out := make([]string, 0, len(path)+1)
	return append(append(out, path...), name)
}

// identifier turns a name into a shell-safe identifier fragment.
func identifier(name string) string {
	snake := strcase.ToSnake(name)
	var b strings.Builder
	for _, r := range snake {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// funcName returns the function implementing completion for path, e.g.
// "_git__remote".
func funcName(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = identifier(p)
	}
	return "_" + strings.Join(parts, "__")
}

// funcNames maps every command path of a tree to a distinct function
// name. Paths whose identifiers coincide, such as foo-bar and fooBar, get
// a numeric suffix in walk order.
type funcNames map[string]string

func newFuncNames(all []node) funcNames {
	names := make(funcNames, len(all))
	used := make(map[string]bool, len(all))
	for _, n := range all {
		base := funcName(n.path)
		name := base
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		used[name] = true
		names[strings.Join(n.path, "\x00")] = name
	}
	return names
}

func (f funcNames) of(path []string) string {
	return f[strings.Join(path, "\x00")]
}

// summary shortens a description to its first sentence on one line.
func summary(desc string) string {
	desc = strings.Join(strings.Fields(desc), " ")
	if idx := strings.Index(desc, ". "); idx > 0 {
		desc = desc[:idx]
	}
	return strings.TrimSuffix(desc, ".")
}

func isShortName(name string) bool {
	return len(name) == 2 && name[0] == '-' && name[1] != '-'
}

func isLongName(name string) bool {
	return strings.HasPrefix(name, "--") && len(name) > 2
}

// words returns every completion word of cmd: option names, then
// subcommand names.
func words(cmd *model.Command) []string {
	var out []string
	for _, opt := range cmd.Options {
		out = append(out, opt.Names()...)
	}
	return append(out, cmd.SubcommandNames()...)
}

// positionalHint guesses a value hint for a positional from its name.
func positionalHint(name string) model.ValueHint {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "dir") || strings.Contains(n, "folder"):
		return model.HintDir
	case strings.Contains(n, "file") || strings.Contains(n, "path") || n == "src" || n == "dest" ||
		n == "source" || n == "target":
		return model.HintFile
	}
	return model.HintNone
}
