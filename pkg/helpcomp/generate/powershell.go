package generate

import (
	"fmt"
	"strings"

	"github.com/helpcomp/helpcomp/pkg/helpcomp/model"
)

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func psResult(text, kind, tooltip string) string {
	if tooltip == "" {
		tooltip = text
	}
	return fmt.Sprintf("[CompletionResult]::new(%s, %s, [CompletionResultType]::%s, %s)",
		psQuote(text), psQuote(text), kind, psQuote(tooltip))
}

func generatePowerShell(cmd *model.Command, _ Options) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# powershell completion for %s\n", cmd.Name)
	b.WriteString("using namespace System.Management.Automation\n")
	b.WriteString("using namespace System.Management.Automation.Language\n\n")
	fmt.Fprintf(&b, "Register-ArgumentCompleter -Native -CommandName %s -ScriptBlock {\n", psQuote(cmd.Name))
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $commandElements = $commandAst.CommandElements\n")
	fmt.Fprintf(&b, "    $command = @(\n        %s\n", psQuote(cmd.Name))
	b.WriteString("        for ($i = 1; $i -lt $commandElements.Count; $i++) {\n")
	b.WriteString("            $element = $commandElements[$i]\n")
	b.WriteString("            if ($element -isnot [StringConstantExpressionAst] -or\n")
	b.WriteString("                $element.StringConstantType -ne [StringConstantType]::BareWord -or\n")
	b.WriteString("                $element.Value.StartsWith('-') -or\n")
	b.WriteString("                $element.Value -eq $wordToComplete) {\n")
	b.WriteString("                break\n")
	b.WriteString("            }\n")
	b.WriteString("            $element.Value\n")
	b.WriteString("        }) -join ';'\n\n")

	b.WriteString("    $completions = @(switch ($command) {\n")
	for _, n := range nodes(cmd) {
		c := n.cmd
		fmt.Fprintf(&b, "        %s {\n", psQuote(strings.Join(n.path, ";")))
		for _, opt := range c.Options {
			tip := summary(opt.Description)
			for _, name := range opt.Names() {
				fmt.Fprintf(&b, "            %s\n", psResult(name, "ParameterName", tip))
			}
		}
		for _, sub := range c.Subcommands {
			fmt.Fprintf(&b, "            %s\n", psResult(sub.Name, "ParameterValue", summary(sub.Description)))
		}
		b.WriteString("            break\n")
		b.WriteString("        }\n")
	}
	b.WriteString("    })\n\n")
	b.WriteString("    $completions.Where{ $_.CompletionText -like \"$wordToComplete*\" } |\n")
	b.WriteString("        Sort-Object -Property ListItemText\n")
	b.WriteString("}\n")
	return b.String(), nil
}
