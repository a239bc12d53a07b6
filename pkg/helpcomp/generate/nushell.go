package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

var nuFlagPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func nuType(hint model.ValueHint) string {
	switch hint {
	case model.HintFile:
		return "path"
	case model.HintDir:
		return "directory"
	case model.HintNumber:
		return "number"
	}
	return "string"
}

func nuString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

type nuParam struct {
	decl string
	desc string
}

// nuFlags converts options to extern flags. Names nushell cannot declare,
// such as single-dash long forms, are dropped, as are repeats.
func nuFlags(cmd *model.Command, seen map[string]bool) []nuParam {
	var params []nuParam
	for _, opt := range cmd.Options {
		short := ""
		if isShortName(opt.Short) && nuFlagPattern.MatchString(opt.Short[1:]) && !seen[opt.Short] {
			short = opt.Short[1:]
		}
		longs := lo.Filter(append([]string{opt.Long}, opt.Aliases...), func(name string, _ int) bool {
			return isLongName(name) && nuFlagPattern.MatchString(name[2:]) && !seen[name]
		})
		longs = lo.Uniq(longs)

		typ := ""
		if opt.TakesValue {
			typ = ": " + nuType(opt.ValueHint)
		}
		desc := summary(opt.Description)
		switch {
		case len(longs) > 0:
			for i, long := range longs {
				decl := long
				if i == 0 && short != "" {
					decl += "(-" + short + ")"
					seen["-"+short] = true
				}
				seen[long] = true
				params = append(params, nuParam{decl: decl + typ, desc: desc})
			}
		case short != "":
			seen["-"+short] = true
			params = append(params, nuParam{decl: "-" + short + typ, desc: desc})
		}
	}
	return params
}

func nuPositionals(cmd *model.Command, seen map[string]bool) []nuParam {
	var required, optional []nuParam
	var rest *nuParam
	for _, pos := range cmd.Positionals {
		name := strings.ToLower(identifier(pos.Name))
		if seen[name] || seen["--"+name] {
			continue
		}
		seen[name] = true
		typ := nuType(positionalHint(pos.Name))
		desc := summary(pos.Description)
		switch {
		case pos.Variadic:
			if rest == nil {
				rest = &nuParam{decl: "..." + name + ": " + typ, desc: desc}
			}
		case pos.Required:
			required = append(required, nuParam{decl: name + ": " + typ, desc: desc})
		default:
			optional = append(optional, nuParam{decl: name + "?: " + typ, desc: desc})
		}
	}
	params := append(required, optional...)
	if rest != nil {
		params = append(params, *rest)
	}
	return params
}

func generateNushell(cmd *model.Command, _ Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# nushell completion for %s\n", cmd.Name)
	b.WriteString("module completions {\n")
	for _, n := range nodes(cmd) {
		c := n.cmd
		seen := map[string]bool{}
		params := nuFlags(c, seen)
		if len(c.Subcommands) == 0 {
			params = append(params, nuPositionals(c, seen)...)
		}

		b.WriteString("\n")
		if desc := summary(c.Description); desc != "" {
			fmt.Fprintf(&b, "  # %s\n", desc)
		}
		fmt.Fprintf(&b, "  export extern %s [\n", nuString(strings.Join(n.path, " ")))
		width := lo.Max(lo.Map(params, func(p nuParam, _ int) int { return len(p.decl) }))
		for _, p := range params {
			if p.desc == "" {
				fmt.Fprintf(&b, "    %s\n", p.decl)
				continue
			}
			fmt.Fprintf(&b, "    %-*s  # %s\n", width, p.decl, p.desc)
		}
		b.WriteString("  ]\n")
	}
	b.WriteString("\n}\n\n")
	b.WriteString("export use completions *\n")
	return b.String(), nil
}
