package main

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts for helpcomp",
	Long: `Generate shell completion scripts for helpcomp itself.

To load completions:

Bash:
  $ source <(helpcomp completion bash)

  # To load completions for each session, execute once:
  $ helpcomp completion bash > ~/.local/share/bash-completion/completions/helpcomp

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ helpcomp completion zsh > "${fpath[1]}/_helpcomp"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ helpcomp completion fish | source

  # To load completions for each session, execute once:
  $ helpcomp completion fish > ~/.config/fish/completions/helpcomp.fish

PowerShell:
  PS> helpcomp completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return cmd.Help()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
