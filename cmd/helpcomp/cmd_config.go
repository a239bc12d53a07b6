package main

import (
	"github.com/spf13/cobra"

	clilib "github.com/helpcomp/helpcomp/internal/cli"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Long: `Write a configuration file with the default settings to the path given
with -C, HELPCOMP_CONFIG, or $XDG_CONFIG_HOME/helpcomp/config.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, ignored := clilib.ResolveConfigPath(globalOpts.ConfigPath)
		if ignored != nil && !globalOpts.Silent {
			output.PrintWarning(cmd.ErrOrStderr(), ignored)
		}
		return clilib.InitConfig(cmd.ErrOrStderr(), path, configInitForce)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration in effect, with global flags applied.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(cmd, false, func(c *clilib.CLI) error {
			return c.ShowConfig()
		})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
