package generate

import (
	"fmt"
	"strings"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

// zshQuote wraps s in single quotes.
func zshQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var zshBracketEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

var zshColonEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

func zshAction(hint model.ValueHint) string {
	switch hint {
	case model.HintFile:
		return "_files"
	case model.HintDir:
		return "_files -/"
	}
	return " "
}

func zshMessage(name string) string {
	if name == "" {
		name = "value"
	}
	return zshColonEscaper.Replace(strings.ToLower(name))
}

func generateZsh(cmd *model.Command, _ Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "#compdef %s\n\n", cmd.Name)
	all := nodes(cmd)
	names := newFuncNames(all)
	for _, n := range all {
		zshFunction(&b, n, names)
	}
	root := names.of([]string{cmd.Name})
	fmt.Fprintf(&b, "if [ \"$funcstack[1]\" = %s ]; then\n", zshQuote(root))
	fmt.Fprintf(&b, "    %s \"$@\"\n", root)
	b.WriteString("else\n")
	fmt.Fprintf(&b, "    compdef %s %s\n", root, zshQuote(cmd.Name))
	b.WriteString("fi\n")
	return b.String(), nil
}

// zshSpecs returns the _arguments specs of cmd's options.
func zshSpecs(cmd *model.Command) []string {
	var specs []string
	for _, opt := range cmd.Options {
		names := opt.Names()
		exclusion := ""
		if len(names) > 1 {
			exclusion = "(" + strings.Join(names, " ") + ")"
		}
		desc := zshBracketEscaper.Replace(summary(opt.Description))
		for _, name := range names {
			spec := exclusion + name
			if opt.TakesValue {
				if isLongName(name) {
					spec += "="
				} else {
					spec += "+"
				}
			}
			if desc != "" {
				spec += "[" + desc + "]"
			}
			if opt.TakesValue {
				spec += ":" + zshMessage(opt.ValueName) + ":" + zshAction(opt.ValueHint)
			}
			specs = append(specs, zshQuote(spec))
		}
	}
	return specs
}

func zshPositionals(cmd *model.Command) []string {
	var specs []string
	for i, pos := range cmd.Positionals {
		msg := zshMessage(pos.Name)
		action := zshAction(positionalHint(pos.Name))
		switch {
		case pos.Variadic:
			specs = append(specs, zshQuote("*:"+msg+":"+action))
		case pos.Required:
			specs = append(specs, zshQuote(fmt.Sprintf("%d:%s:%s", i+1, msg, action)))
		default:
			specs = append(specs, zshQuote(fmt.Sprintf("%d::%s:%s", i+1, msg, action)))
		}
		if pos.Variadic {
			break
		}
	}
	return specs
}

func zshFunction(b *strings.Builder, n node, names funcNames) {
	cmd := n.cmd
	name := names.of(n.path)
	fmt.Fprintf(b, "%s() {\n", name)

	specs := zshSpecs(cmd)
	hasSubs := len(cmd.Subcommands) > 0
	if hasSubs {
		b.WriteString("    local curcontext=\"$curcontext\" state line\n")
		b.WriteString("    typeset -A opt_args\n")
		specs = append(specs, "': :->command'", "'*:: :->args'")
	} else {
		specs = append(specs, zshPositionals(cmd)...)
	}

	if len(specs) == 0 {
		b.WriteString("    _message 'no more arguments'\n")
		b.WriteString("}\n\n")
		return
	}

	args := "-s -S"
	if hasSubs {
		args += " -C"
	}
	fmt.Fprintf(b, "    _arguments %s \\\n", args)
	for i, spec := range specs {
		sep := " \\"
		if i == len(specs)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "        %s%s\n", spec, sep)
	}

	if hasSubs {
		b.WriteString("\n    case $state in\n")
		b.WriteString("        command)\n")
		b.WriteString("            local -a commands\n")
		b.WriteString("            commands=(\n")
		for _, sub := range cmd.Subcommands {
			entry := zshColonEscaper.Replace(sub.Name)
			if desc := summary(sub.Description); desc != "" {
				entry += ":" + desc
			}
			fmt.Fprintf(b, "                %s\n", zshQuote(entry))
		}
		b.WriteString("            )\n")
		fmt.Fprintf(b, "            _describe -t commands %s commands\n", zshQuote(strings.Join(n.path, " ")+" commands"))
		b.WriteString("            ;;\n")
		b.WriteString("        args)\n")
		b.WriteString("            case $line[1] in\n")
		for _, sub := range cmd.Subcommands {
			child := names.of(childPath(n.path, sub.Name))
			fmt.Fprintf(b, "                %s) %s ;;\n", zshQuote(sub.Name), child)
		}
		b.WriteString("            esac\n")
		b.WriteString("            ;;\n")
		b.WriteString("    esac\n")
	}
	b.WriteString("}\n\n")
}
