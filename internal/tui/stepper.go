package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/schmitthub/gantry/internal/iostreams"
)

// StepState represents the state of a step in a stepper bar.
type StepState int

const (
	// StepPendingState indicates the step has not been started.
	StepPendingState StepState = iota
	// StepActiveState indicates the step is currently running.
	StepActiveState
	// StepCompleteState indicates the step finished successfully.
	StepCompleteState
	// StepFailedState indicates the step finished with an error.
	StepFailedState
	// StepSkippedState indicates the step was skipped (hidden from display).
	StepSkippedState
)

// Step is a single entry in a stepper bar.
type Step struct {
	Title string // short label for the bar
	Value string // displayed next to completed steps (e.g. an image tag)
	State StepState
}

// RenderStepperBar renders a horizontal step indicator.
//
// Completed steps show a checkmark with their title and optional value,
// failed steps a cross, the active step a filled circle, pending steps an
// empty circle. Skipped steps are hidden entirely.
//
// Example output:
//
//	✓ Build: web:42  →  ◉ Publish  →  ○ Deploy
func RenderStepperBar(steps []Step, width int) string {
	var parts []string

	for _, step := range steps {
		if step.State == StepSkippedState {
			continue
		}

		var segment string
		switch step.State {
		case StepCompleteState:
			icon := iostreams.SuccessStyle.Render("✓")
			if step.Value != "" {
				segment = fmt.Sprintf("%s %s: %s", icon, step.Title, step.Value)
			} else {
				segment = fmt.Sprintf("%s %s", icon, step.Title)
			}
		case StepFailedState:
			icon := iostreams.ErrorStyle.Render("✗")
			title := iostreams.ErrorStyle.Render(step.Title)
			segment = fmt.Sprintf("%s %s", icon, title)
		case StepActiveState:
			icon := iostreams.TitleStyle.Render("◉")
			title := iostreams.TitleStyle.Render(step.Title)
			segment = fmt.Sprintf("%s %s", icon, title)
		case StepPendingState:
			icon := iostreams.MutedStyle.Render("○")
			title := iostreams.MutedStyle.Render(step.Title)
			segment = fmt.Sprintf("%s %s", icon, title)
		}

		parts = append(parts, segment)
	}

	if len(parts) == 0 {
		return ""
	}

	separator := iostreams.MutedStyle.Render(" → ")
	result := strings.Join(parts, separator)

	if width > 0 && ansi.StringWidth(result) > width {
		result = ansi.Truncate(result, width, "...")
	}

	return result
}
