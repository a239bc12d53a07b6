package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	clilib "github.com/helpcomp/helpcomp/internal/cli"
	"github.com/helpcomp/helpcomp/pkg/helpcomp/output"
)

// GlobalOptions holds the global configuration flags
type GlobalOptions struct {
	ConfigPath   string
	Silent       bool
	Strict       bool
	Verbose      int
	CacheBackend string
	CacheDir     string
}

// globalOpts is the shared global options instance
var globalOpts = &GlobalOptions{}

// createCLI creates a CLI instance from the global flags. ttl overrides
// the configured cache lifetime when positive.
func createCLI(cmd *cobra.Command, jsonOutput bool, ttl time.Duration) (*clilib.CLI, error) {
	return clilib.NewCLI(clilib.Options{
		ConfigPath:   globalOpts.ConfigPath,
		Silent:       globalOpts.Silent,
		Strict:       globalOpts.Strict,
		JSON:         jsonOutput,
		Verbose:      globalOpts.Verbose,
		CacheBackend: globalOpts.CacheBackend,
		CacheDir:     globalOpts.CacheDir,
		TTL:          ttl,
		Stdin:        os.Stdin,
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
	})
}

// withCLI runs fn against a fresh CLI and releases it afterwards.
func withCLI(cmd *cobra.Command, jsonOutput bool, fn func(*clilib.CLI) error) error {
	c, err := createCLI(cmd, jsonOutput, 0)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

// flagError turns cobra flag parsing failures into usage errors.
func flagError(cmd *cobra.Command, err error) error {
	_, _ = io.WriteString(cmd.ErrOrStderr(), cmd.UsageString())
	return output.Wrap(output.CodeUsageError, err, "invalid arguments")
}
