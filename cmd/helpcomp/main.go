//go:build !gendocs

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	clilib "github.com/helpcomp/helpcomp/internal/cli"
)

// main runs the CLI
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(int(clilib.PrintError(os.Stderr, err)))
	}
}
