package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/schmitthub/gantry/internal/iostreams"
)

// SpinnerModel wraps bubbles/spinner with gantry styling and a label.
type SpinnerModel struct {
	spinner spinner.Model
	label   string
}

// NewSpinner creates a spinner with the given label.
func NewSpinner(label string) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = iostreams.CyanStyle

	return SpinnerModel{
		spinner: s,
		label:   label,
	}
}

// Init initializes the spinner.
func (m SpinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the spinner.
func (m SpinnerModel) Update(msg tea.Msg) (SpinnerModel, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the spinner and its label.
func (m SpinnerModel) View() string {
	if m.label == "" {
		return m.spinner.View()
	}
	return m.spinner.View() + " " + iostreams.MutedStyle.Render(m.label)
}

// SetLabel updates the spinner's label.
func (m SpinnerModel) SetLabel(label string) SpinnerModel {
	m.label = label
	return m
}

// SpinnerTickMsg is sent when the spinner should update.
type SpinnerTickMsg = spinner.TickMsg
