package main

import (
	"github.com/spf13/cobra"

	clilib "github.com/helpcomp/helpcomp/internal/cli"
)

var cacheListJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the result cache",
	Long: `Inspect and maintain the result cache.

Parsed commands and rendered scripts are cached, keyed by a fingerprint of
the command path, the options and the help text itself. Entries expire
after the configured ttl.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(cmd, cacheListJSON, func(c *clilib.CLI) error {
			return c.CacheList(cmd.Context(), cacheListJSON)
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(cmd, false, func(c *clilib.CLI) error {
			return c.CachePrune(cmd.Context())
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(cmd, false, func(c *clilib.CLI) error {
			return c.CacheClear(cmd.Context())
		})
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCLI(cmd, false, func(c *clilib.CLI) error {
			return c.CachePath()
		})
	},
}

func init() {
	cacheListCmd.Flags().BoolVar(&cacheListJSON, "json", false, "Output as JSON")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
}
