package generate

import (
	"fmt"
	"strings"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

var fishEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func fishQuote(s string) string {
	return "'" + fishEscaper.Replace(s) + "'"
}

// fishCondition limits a completion to the command at path. Subcommand
// names are offered only while none of them has been typed.
func fishCondition(path []string, children []string) string {
	var parts []string
	if len(path) == 1 && len(children) > 0 {
		parts = append(parts, "__fish_use_subcommand")
	}
	for _, p := range path[1:] {
		parts = append(parts, "__fish_seen_subcommand_from "+p)
	}
	if len(path) > 1 && len(children) > 0 {
		parts = append(parts, "not __fish_seen_subcommand_from "+strings.Join(children, " "))
	}
	return strings.Join(parts, "; and ")
}

func fishFlag(name string) string {
	switch {
	case isLongName(name):
		return "-l " + fishQuote(strings.TrimPrefix(name, "--"))
	case isShortName(name):
		return "-s " + fishQuote(name[1:])
	default:
		return "-o " + fishQuote(strings.TrimPrefix(name, "-"))
	}
}

func generateFish(cmd *model.Command, _ Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# fish completion for %s\n", cmd.Name)
	prefix := "complete -c " + fishQuote(cmd.Name)

	for _, n := range nodes(cmd) {
		c := n.cmd
		if len(c.Options) == 0 && len(c.Subcommands) == 0 {
			continue
		}
		b.WriteString("\n")

		optCond := fishCondition(n.path, nil)
		for _, opt := range c.Options {
			var line strings.Builder
			line.WriteString(prefix)
			if optCond != "" {
				line.WriteString(" -n " + fishQuote(optCond))
			}
			for _, name := range opt.Names() {
				line.WriteString(" " + fishFlag(name))
			}
			if opt.TakesValue {
				switch opt.ValueHint {
				case model.HintFile:
					line.WriteString(" -r -F")
				case model.HintDir:
					line.WriteString(" -x -a '(__fish_complete_directories)'")
				default:
					line.WriteString(" -x")
				}
			}
			if desc := summary(opt.Description); desc != "" {
				line.WriteString(" -d " + fishQuote(desc))
			}
			b.WriteString(line.String() + "\n")
		}

		if len(c.Subcommands) == 0 {
			continue
		}
		subCond := fishCondition(n.path, c.SubcommandNames())
		for _, sub := range c.Subcommands {
			line := fmt.Sprintf("%s -f -n %s -a %s", prefix, fishQuote(subCond), fishQuote(sub.Name))
			if desc := summary(sub.Description); desc != "" {
				line += " -d " + fishQuote(desc)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String(), nil
}
