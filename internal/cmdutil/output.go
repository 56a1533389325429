package cmdutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/schmitthub/gantry/internal/iostreams"
)

// userFormattedError is a duck-typed interface for errors that can format
// themselves for user display. Pipeline stage errors satisfy this interface.
type userFormattedError interface {
	FormatUserError() string
}

// HandleError prints an error to stderr using the error's own user
// formatting when available. Most commands should instead return the error
// to Main() for centralized rendering.
func HandleError(ios *iostreams.IOStreams, err error) {
	if err == nil {
		return
	}

	var ufErr userFormattedError
	if errors.As(err, &ufErr) {
		fmt.Fprintln(ios.ErrOut, ufErr.FormatUserError())
		return
	}

	fmt.Fprintf(ios.ErrOut, "Error: %s\n", err)
}

// PrintStatus prints a status message to stderr unless quiet is enabled.
// Use this for informational messages that can be suppressed with --quiet.
func PrintStatus(ios *iostreams.IOStreams, quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(ios.ErrOut, format+"\n", args...)
	}
}

// OutputJSON marshals data to stdout as JSON with indentation.
// Use this for machine-readable output when --json flag is set.
func OutputJSON(ios *iostreams.IOStreams, data any) error {
	enc := json.NewEncoder(ios.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintHelpHint prints a contextual help hint to stderr.
// cmdPath should be cmd.CommandPath() (e.g., "gantry deploy")
func PrintHelpHint(ios *iostreams.IOStreams, cmdPath string) {
	fmt.Fprintf(ios.ErrOut, "\nRun '%s --help' for more information.\n", cmdPath)
}
