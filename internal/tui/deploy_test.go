package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deployStages = []string{"Build", "Publish", "Render", "Deploy", "Stabilize"}

func newDeployModel() DeployModel {
	return NewDeployModel("web", "production", deployStages)
}

func update(t *testing.T, m DeployModel, msg tea.Msg) (DeployModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(DeployModel)
	require.True(t, ok, "Update should return a DeployModel")
	return dm, cmd
}

func TestDeployModelStageLifecycle(t *testing.T) {
	m := newDeployModel()

	m, _ = update(t, m, StageStartMsg{Stage: "Build"})
	m, _ = update(t, m, StageDoneMsg{Stage: "Build", Detail: "web:42"})
	m, _ = update(t, m, StageStartMsg{Stage: "Publish"})

	plain := ansi.Strip(m.View())
	assert.Contains(t, plain, "Deploying web to production")
	assert.Contains(t, plain, "✓ Build: web:42")
	assert.Contains(t, plain, "◉ Publish")
	assert.Contains(t, plain, "○ Deploy")
}

func TestDeployModelStageFailure(t *testing.T) {
	m := newDeployModel()

	m, _ = update(t, m, StageStartMsg{Stage: "Build"})
	m, _ = update(t, m, StageFailMsg{Stage: "Build"})
	m, cmd := update(t, m, DeployDoneMsg{Err: errors.New("build failed")})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd(), "done message should quit the program")

	plain := ansi.Strip(m.View())
	assert.Contains(t, plain, "✗ Build")
	assert.Contains(t, plain, "✗ Deployment failed")
	assert.EqualError(t, m.Err(), "build failed")
}

func TestDeployModelSuccess(t *testing.T) {
	m := newDeployModel()
	for _, stage := range deployStages {
		m, _ = update(t, m, StageStartMsg{Stage: stage})
		m, _ = update(t, m, StageDoneMsg{Stage: stage})
	}

	m, cmd := update(t, m, DeployDoneMsg{})

	require.NotNil(t, cmd)
	plain := ansi.Strip(m.View())
	assert.Contains(t, plain, "✓ Deployment succeeded")
	assert.NoError(t, m.Err())
	assert.False(t, m.Cancelled())
}

func TestDeployModelLogTailCapped(t *testing.T) {
	m := newDeployModel()

	for i := 0; i < logTailLines+3; i++ {
		m, _ = update(t, m, LogLineMsg{Line: fmt.Sprintf("step %d\n", i)})
	}
	m, _ = update(t, m, LogLineMsg{Line: ""})

	plain := ansi.Strip(m.View())
	assert.NotContains(t, plain, "step 0", "oldest lines fall out of the tail")
	assert.NotContains(t, plain, "step 2")
	assert.Contains(t, plain, "step 3")
	assert.Contains(t, plain, fmt.Sprintf("step %d", logTailLines+2))
}

func TestDeployModelServiceEvents(t *testing.T) {
	m := newDeployModel()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	m, _ = update(t, m, ServiceEventMsg{At: at, Message: "(service web) has started 2 tasks"})

	plain := ansi.Strip(m.View())
	assert.Contains(t, plain, "09:26:53  (service web) has started 2 tasks")
}

func TestDeployModelRolloutState(t *testing.T) {
	m := newDeployModel()

	m, _ = update(t, m, RolloutStateMsg{State: "stabilizing"})

	plain := ansi.Strip(m.View())
	assert.Contains(t, plain, "rollout stabilizing")
}

func TestDeployModelQuitKey(t *testing.T) {
	m := newDeployModel()

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Cancelled())
	assert.Contains(t, ansi.Strip(m.View()), "Cancelling")
}

func TestDeployModelUnknownStageIgnored(t *testing.T) {
	m := newDeployModel()

	m, _ = update(t, m, StageStartMsg{Stage: "Teleport"})

	plain := ansi.Strip(m.View())
	assert.NotContains(t, plain, "Teleport")
}
