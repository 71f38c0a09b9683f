// Package main is the entry point for rentixctl
package main

import (
	"context"
	"os"

	"github.com/Mavton23/rentix/cmd"
	"github.com/Mavton23/rentix/internal/output"
)

// Set at build time via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	cmd.SetVersion(version)
	cmd.SetBuildInfo(commit, buildTime)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		cliErr := output.FromError(err)
		cmd.Printer().FormatError(cliErr)
		os.Exit(cliErr.ExitCode)
	}
}
