package generate

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samber/lo"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

func optionLabel(opt model.Option) string {
	label := strings.Join(opt.Names(), ", ")
	if opt.TakesValue {
		name := opt.ValueName
		if name == "" {
			name = "VALUE"
		}
		label += " <" + name + ">"
	}
	return label
}

// table renders two columns, the first padded to its widest cell.
func table(b *strings.Builder, indent string, rows [][2]string) {
	width := lo.Max(lo.Map(rows, func(r [2]string, _ int) int { return runewidth.StringWidth(r[0]) }))
	for _, r := range rows {
		if r[1] == "" {
			fmt.Fprintf(b, "%s%s\n", indent, r[0])
			continue
		}
		fmt.Fprintf(b, "%s%s  %s\n", indent, runewidth.FillRight(r[0], width), r[1])
	}
}

func nativeOptions(b *strings.Builder, cmd *model.Command, indent string) {
	rows := lo.Map(cmd.Options, func(opt model.Option, _ int) [2]string {
		desc := summary(opt.Description)
		if opt.HasDefault {
			desc = strings.TrimSpace(desc + " [default: " + opt.Default + "]")
		}
		return [2]string{optionLabel(opt), desc}
	})
	table(b, indent, rows)
}

func generateNative(cmd *model.Command, _ Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:  %s\n", cmd.Name)
	fmt.Fprintf(&b, "Desc:  %s\n", cmd.Description)
	fmt.Fprintf(&b, "Source:  %s\n", cmd.Source)
	if cmd.Usage != "" {
		fmt.Fprintf(&b, "\nUsage:\n%s\n", strings.TrimRight(cmd.Usage, "\n"))
	}
	if len(cmd.Positionals) > 0 {
		b.WriteString("\nArguments:\n")
		table(&b, "  ", lo.Map(cmd.Positionals, func(p model.Positional, _ int) [2]string {
			name := p.Name
			if !p.Required {
				name = "[" + name + "]"
			}
			if p.Variadic {
				name += "..."
			}
			return [2]string{name, summary(p.Description)}
		}))
	}
	if len(cmd.Options) > 0 {
		b.WriteString("\nOptions:\n")
		nativeOptions(&b, cmd, "  ")
	}
	for _, n := range nodes(cmd)[1:] {
		fmt.Fprintf(&b, "\nSubcommand: %s", strings.Join(n.path[1:], " "))
		if desc := summary(n.cmd.Description); desc != "" {
			fmt.Fprintf(&b, "  %s", desc)
		}
		b.WriteString("\n")
		nativeOptions(&b, n.cmd, "    ")
	}
	return b.String(), nil
}
