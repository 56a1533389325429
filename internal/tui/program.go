package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schmitthub/gantry/internal/iostreams"
)

// ProgramOption configures a BubbleTea program.
type ProgramOption func(*programOptions)

type programOptions struct {
	altScreen bool
}

// WithAltScreen enables or disables the alternate screen buffer.
func WithAltScreen(enabled bool) ProgramOption {
	return func(o *programOptions) {
		o.altScreen = enabled
	}
}

// NewProgram creates a BubbleTea program bound to the given IOStreams.
// The program renders to stderr so stdout stays machine-readable.
// Callers that feed the model from another goroutine keep the returned
// handle and use Send.
func NewProgram(ios *iostreams.IOStreams, model tea.Model, opts ...ProgramOption) *tea.Program {
	var cfg programOptions
	for _, opt := range opts {
		opt(&cfg)
	}

	teaOpts := []tea.ProgramOption{
		tea.WithInput(ios.In),
		tea.WithOutput(ios.ErrOut),
	}
	if cfg.altScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}

	return tea.NewProgram(model, teaOpts...)
}

// RunProgram creates and runs a BubbleTea program with the given IOStreams.
// It returns the final model state after the program exits.
func RunProgram(ios *iostreams.IOStreams, model tea.Model, opts ...ProgramOption) (tea.Model, error) {
	return NewProgram(ios, model, opts...).Run()
}
