package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	clilib "github.com/helpcomp/helpcomp/internal/cli"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/config"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/generate"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/source"
)

var (
	version = "unknown"
	commit  = "none"
	date    = "unknown"
)

// generateFlags holds the flags of the root (generate) command.
type generateFlags struct {
	file                 string
	subcommand           string
	loadJSON             string
	name                 string
	format               string
	json                 bool
	depth                int
	skipMan              bool
	ttl                  time.Duration
	bashCompletionCompat bool
	write                bool
	noCache              bool
	preprocessOnly       bool
	listSubcommands      bool
}

var genFlags = &generateFlags{}

var rootCmd = &cobra.Command{
	Use:   "helpcomp [command [subcommand...]]",
	Short: "Generate shell completions from help text",
	Long: `helpcomp reads a program's man page or --help output and generates shell
completion scripts for bash, zsh, fish, powershell, elvish and nushell, or
a JSON description of its options and subcommands.

The program is run with --help (or -h) and its man page is preferred when
one exists. Help text can also come from a file, from standard input or
from a JSON file written earlier with --format json.

Use -- before a program whose name matches a helpcomp command:
  $ helpcomp -- cache`,
	Example: `  helpcomp git
  helpcomp --format fish --depth 2 docker
  helpcomp --subcommand git-log --format zsh
  mytool --help | helpcomp --name mytool --format nushell
  helpcomp --write --format bash rg`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && genFlags.file == "" && genFlags.subcommand == "" &&
			genFlags.loadJSON == "" && !source.StdinHasInput(os.Stdin) {
			return cmd.Help()
		}

		c, err := createCLI(cmd, false, genFlags.ttl)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		req, err := buildRequest(cmd, c.Config(), args)
		if err != nil {
			return err
		}
		return c.Generate(cmd.Context(), req)
	},
}

// buildRequest merges the flags with the configured defaults. Flags the
// user did not set fall back to the config file.
func buildRequest(cmd *cobra.Command, cfg config.Config, args []string) (clilib.Request, error) {
	flags := cmd.Flags()
	req := clilib.Request{
		Command:              args,
		File:                 genFlags.file,
		Subcommand:           genFlags.subcommand,
		LoadJSON:             genFlags.loadJSON,
		Name:                 genFlags.name,
		Depth:                cfg.Depth,
		SkipMan:              cfg.SkipMan || genFlags.skipMan,
		BashCompletionCompat: cfg.BashCompletionCompat || genFlags.bashCompletionCompat,
		Write:                genFlags.write,
		NoCache:              genFlags.noCache,
		PreprocessOnly:       genFlags.preprocessOnly,
		ListSubcommands:      genFlags.listSubcommands,
	}
	if flags.Changed("depth") {
		req.Depth = genFlags.depth
	}

	switch {
	case genFlags.json:
		req.Format = generate.JSON
	case flags.Changed("format"):
		f, err := generate.ParseFormat(genFlags.format)
		if err != nil {
			return req, output.Wrap(output.CodeUsageError, err, "invalid --format")
		}
		req.Format = f
	}

	if req.Depth < 0 {
		return req, output.NewErrorf(output.CodeUsageError, "--depth must not be negative, got %d", req.Depth)
	}
	if req.Write && (req.PreprocessOnly || req.ListSubcommands) {
		return req, output.NewError(output.CodeUsageError, "--write cannot be combined with --preprocess-only or --list-subcommands")
	}
	if len(args) > 0 && (req.File != "" || req.Subcommand != "" || req.LoadJSON != "") {
		return req, output.NewError(output.CodeUsageError, "a command argument cannot be combined with --file, --subcommand or --loadjson")
	}
	return req, nil
}

func init() {
	// Persistent flags available to all commands
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&globalOpts.ConfigPath, "config", "C", "", "Path to config file")
	pf.BoolVarP(&globalOpts.Silent, "silent", "q", false, "Silent mode (suppress warnings)")
	pf.BoolVar(&globalOpts.Strict, "strict", false, "Treat warnings as errors")
	pf.CountVarP(&globalOpts.Verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	pf.StringVar(&globalOpts.CacheBackend, "cache-backend", "", fmt.Sprintf("Cache backend: %s, %s, %s or %s",
		config.BackendFile, config.BackendSQLite, config.BackendMemory, config.BackendNone))
	pf.StringVar(&globalOpts.CacheDir, "cache-dir", "", "Cache directory (default $XDG_CACHE_HOME/helpcomp)")

	f := rootCmd.Flags()
	f.StringVarP(&genFlags.file, "file", "f", "", "Read help text from a file")
	f.StringVarP(&genFlags.subcommand, "subcommand", "s", "", "Document a subcommand given as command-subcommand (e.g. git-log)")
	f.StringVar(&genFlags.loadJSON, "loadjson", "", "Render a command saved with --format json")
	f.StringVar(&genFlags.name, "name", "", "Command name for --file and standard input")
	f.StringVar(&genFlags.format, "format", "", fmt.Sprintf("Output format: %v (default from config, bash)", generate.Formats()))
	f.BoolVar(&genFlags.json, "json", false, "Shorthand for --format json")
	f.IntVarP(&genFlags.depth, "depth", "d", config.DefaultConfig().Depth, "Levels of subcommands to document")
	f.BoolVar(&genFlags.skipMan, "skip-man", false, "Use --help output only, never man pages")
	f.DurationVar(&genFlags.ttl, "ttl", 0, "Cache lifetime for new entries (default from config)")
	f.BoolVar(&genFlags.bashCompletionCompat, "bash-completion-compat", false, "Use bash-completion helpers and show descriptions")
	f.BoolVarP(&genFlags.write, "write", "w", false, "Install the script where the shell loads completions from")
	f.BoolVar(&genFlags.noCache, "no-cache", false, "Bypass the result cache")
	f.BoolVar(&genFlags.preprocessOnly, "preprocess-only", false, "Print the normalized help text blocks and exit")
	f.BoolVar(&genFlags.preprocessOnly, "debug", false, "Alias for --preprocess-only")
	f.BoolVar(&genFlags.listSubcommands, "list-subcommands", false, "Print subcommand names, one per line")

	rootCmd.MarkFlagsMutuallyExclusive("json", "format")
	rootCmd.MarkFlagsMutuallyExclusive("file", "subcommand", "loadjson")
	_ = rootCmd.MarkFlagFilename("file")
	_ = rootCmd.MarkFlagFilename("loadjson", "json")
	_ = rootCmd.MarkPersistentFlagFilename("config", "yaml", "yml")
	_ = rootCmd.MarkPersistentFlagDirname("cache-dir")
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, f := range generate.Formats() {
			names = append(names, string(f))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("cache-backend", cobra.FixedCompletions(
		[]string{config.BackendFile, config.BackendSQLite, config.BackendMemory, config.BackendNone},
		cobra.ShellCompDirectiveNoFileComp))

	rootCmd.SetFlagErrorFunc(flagError)

	// Add subcommands
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}
