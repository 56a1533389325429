// Package gantry hosts the CLI entry point.
package gantry

import (
	"errors"

	"github.com/schmitthub/gantry/internal/cmd/factory"
	"github.com/schmitthub/gantry/internal/cmd/root"
	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/logger"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "none"
)

// Main initializes the Factory, creates the root command, and executes it.
// It returns the process exit code.
func Main() int {
	defer logger.CloseFileWriter()

	f := factory.New(Version, Commit)
	defer f.CloseDockerClient()

	rootCmd := root.NewCmdRoot(f)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	if errors.Is(err, cmdutil.SilentError) {
		return 1
	}

	var exitErr *cmdutil.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var flagErr *cmdutil.FlagError
	if errors.As(err, &flagErr) {
		cmdutil.HandleError(f.IOStreams, err)
		cmdutil.PrintHelpHint(f.IOStreams, cmd.CommandPath())
		return 2
	}

	cmdutil.HandleError(f.IOStreams, err)
	return 1
}
