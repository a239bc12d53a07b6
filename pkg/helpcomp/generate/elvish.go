package generate

import (
	"fmt"
	"strings"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

func elvishQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func generateElvish(cmd *model.Command, _ Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# elvish completion for %s\n", cmd.Name)
	b.WriteString("use str\n\n")
	fmt.Fprintf(&b, "set edit:completion:arg-completer[%s] = {|@words|\n", elvishQuote(cmd.Name))
	b.WriteString("    fn cand {|text desc|\n")
	b.WriteString("        edit:complex-candidate $text &display=$text'  '$desc\n")
	b.WriteString("    }\n")
	fmt.Fprintf(&b, "    var command = %s\n", elvishQuote(cmd.Name))
	b.WriteString("    for word $words[1..-1] {\n")
	b.WriteString("        if (str:has-prefix $word '-') {\n")
	b.WriteString("            break\n")
	b.WriteString("        }\n")
	b.WriteString("        set command = $command';'$word\n")
	b.WriteString("    }\n")
	b.WriteString("    var completions = [\n")
	for _, n := range nodes(cmd) {
		c := n.cmd
		fmt.Fprintf(&b, "        &%s= {\n", elvishQuote(strings.Join(n.path, ";")))
		for _, opt := range c.Options {
			desc := elvishQuote(summary(opt.Description))
			for _, name := range opt.Names() {
				fmt.Fprintf(&b, "            cand %s %s\n", elvishQuote(name), desc)
			}
		}
		for _, sub := range c.Subcommands {
			fmt.Fprintf(&b, "            cand %s %s\n", elvishQuote(sub.Name), elvishQuote(summary(sub.Description)))
		}
		b.WriteString("        }\n")
	}
	b.WriteString("    ]\n")
	b.WriteString("    if (has-key $completions $command) {\n")
	b.WriteString("        $completions[$command]\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String(), nil
}
