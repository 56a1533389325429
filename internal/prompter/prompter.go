// Package prompter provides interactive prompting backed by IOStreams.
//
// Prompts are written to stderr so stdout stays clean for pipeline output.
// In non-interactive mode every prompt resolves to its default without
// touching the terminal.
package prompter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/schmitthub/gantry/internal/iostreams"
)

// Prompter asks the user for values when the session is interactive.
type Prompter struct {
	ios *iostreams.IOStreams
}

// New creates a Prompter bound to the given IOStreams.
func New(ios *iostreams.IOStreams) *Prompter {
	return &Prompter{ios: ios}
}

// StringConfig configures a string prompt.
type StringConfig struct {
	Message   string
	Default   string
	Required  bool
	Validator func(string) error
}

// String prompts the user for a string value.
// Returns the default if the user enters nothing.
// In non-interactive mode, returns the default without prompting.
func (p *Prompter) String(cfg StringConfig) (string, error) {
	if !p.ios.IsInteractive() {
		if cfg.Required && cfg.Default == "" {
			return "", fmt.Errorf("%s is required in non-interactive mode", cfg.Message)
		}
		return cfg.Default, nil
	}

	prompt := cfg.Message
	if cfg.Default != "" {
		prompt = fmt.Sprintf("%s [%s]", cfg.Message, cfg.Default)
	}

	fmt.Fprintf(p.ios.ErrOut, "%s: ", prompt)

	reader := bufio.NewReader(p.ios.In)
	response, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && cfg.Default != "" {
			fmt.Fprintln(p.ios.ErrOut)
			return cfg.Default, nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		response = cfg.Default
	}

	if cfg.Required && response == "" {
		return "", fmt.Errorf("%s is required", cfg.Message)
	}

	if cfg.Validator != nil {
		if err := cfg.Validator(response); err != nil {
			return "", err
		}
	}

	return response, nil
}

// Confirm prompts the user for a yes/no confirmation.
// In non-interactive mode, returns the default without prompting.
func (p *Prompter) Confirm(message string, defaultYes bool) (bool, error) {
	if !p.ios.IsInteractive() {
		return defaultYes, nil
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	fmt.Fprintf(p.ios.ErrOut, "%s %s ", message, hint)

	reader := bufio.NewReader(p.ios.In)
	response, err := reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			fmt.Fprintln(p.ios.ErrOut)
			return defaultYes, nil
		}
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	if response == "" {
		return defaultYes, nil
	}

	return response == "y" || response == "yes", nil
}
