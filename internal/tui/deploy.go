package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/schmitthub/gantry/internal/iostreams"
)

const (
	logTailLines      = 6
	serviceEventLines = 6
)

// Messages fed into the deploy model by the command layer via Program.Send.
// The pipeline itself runs on another goroutine and never touches the model.
type (
	// StageStartMsg marks a pipeline stage as running.
	StageStartMsg struct{ Stage string }
	// StageDoneMsg marks a pipeline stage as finished, with an optional
	// short result shown next to the step (an image tag, a revision).
	StageDoneMsg struct {
		Stage  string
		Detail string
	}
	// StageFailMsg marks a pipeline stage as failed.
	StageFailMsg struct{ Stage string }
	// LogLineMsg appends a line of build or push output to the tail view.
	LogLineMsg struct{ Line string }
	// RolloutStateMsg reports the orchestrator state during the wait stage.
	RolloutStateMsg struct{ State string }
	// ServiceEventMsg reports a service event observed during the rollout.
	ServiceEventMsg struct {
		At      time.Time
		Message string
	}
	// DeployDoneMsg ends the program. Err is nil on success.
	DeployDoneMsg struct{ Err error }
)

// DeployModel renders a live view of a deployment run: a stepper bar for
// the pipeline stages, a tail of build output, and the service events seen
// while waiting for the rollout to stabilize.
type DeployModel struct {
	service string
	cluster string

	steps   []Step
	indexOf map[string]int

	spinner SpinnerModel
	state   string
	tail    []string
	events  []string

	width     int
	done      bool
	cancelled bool
	err       error
}

// NewDeployModel creates a deploy view for the given service and the stage
// titles in pipeline order.
func NewDeployModel(service, cluster string, stages []string) DeployModel {
	steps := make([]Step, len(stages))
	indexOf := make(map[string]int, len(stages))
	for i, name := range stages {
		steps[i] = Step{Title: name, State: StepPendingState}
		indexOf[name] = i
	}

	return DeployModel{
		service: service,
		cluster: cluster,
		steps:   steps,
		indexOf: indexOf,
		spinner: NewSpinner("starting"),
		width:   80,
	}
}

// Cancelled reports whether the user quit before the run finished. The
// command layer cancels the pipeline context when this is set.
func (m DeployModel) Cancelled() bool {
	return m.cancelled
}

// Err returns the pipeline error delivered by DeployDoneMsg, if any.
func (m DeployModel) Err() error {
	return m.err
}

// Init starts the spinner.
func (m DeployModel) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages for the deploy view.
func (m DeployModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if IsQuit(msg) {
			m.cancelled = true
			return m, tea.Quit
		}
		return m, nil

	case SpinnerTickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StageStartMsg:
		m.setStepState(msg.Stage, StepActiveState, "")
		m.spinner = m.spinner.SetLabel(msg.Stage)
		return m, nil

	case StageDoneMsg:
		m.setStepState(msg.Stage, StepCompleteState, msg.Detail)
		return m, nil

	case StageFailMsg:
		m.setStepState(msg.Stage, StepFailedState, "")
		return m, nil

	case LogLineMsg:
		line := strings.TrimRight(msg.Line, "\n")
		if line == "" {
			return m, nil
		}
		m.tail = appendCapped(m.tail, line, logTailLines)
		return m, nil

	case RolloutStateMsg:
		m.state = msg.State
		m.spinner = m.spinner.SetLabel("rollout " + msg.State)
		return m, nil

	case ServiceEventMsg:
		line := msg.At.Format("15:04:05") + "  " + msg.Message
		m.events = appendCapped(m.events, line, serviceEventLines)
		return m, nil

	case DeployDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the deploy view.
func (m DeployModel) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Deploying %s to %s", m.service, m.cluster)
	b.WriteString(iostreams.TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(RenderStepperBar(m.steps, m.width))
	b.WriteString("\n")

	for _, line := range m.tail {
		b.WriteString("  ")
		b.WriteString(iostreams.MutedStyle.Render(line))
		b.WriteString("\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n")
		for _, line := range m.events {
			b.WriteString("  ")
			b.WriteString(iostreams.MutedStyle.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.done && m.err == nil:
		b.WriteString(iostreams.SuccessStyle.Render("✓ Deployment succeeded"))
		b.WriteString("\n")
	case m.done:
		b.WriteString(iostreams.ErrorStyle.Render("✗ Deployment failed"))
		b.WriteString("\n")
	case m.cancelled:
		b.WriteString(iostreams.WarningStyle.Render("Cancelling"))
		b.WriteString("\n")
	default:
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (m *DeployModel) setStepState(stage string, state StepState, value string) {
	i, ok := m.indexOf[stage]
	if !ok {
		return
	}
	m.steps[i].State = state
	if value != "" {
		m.steps[i].Value = value
	}
}

func appendCapped(lines []string, line string, limit int) []string {
	lines = append(lines, line)
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}
