package iostreams

import (
	"errors"
	"strings"
	"testing"
)

func TestNewTestIOStreams_Defaults(t *testing.T) {
	tio := NewTestIOStreams()

	if tio.IOStreams.IsInputTTY() {
		t.Error("test streams should not be an input TTY")
	}
	if tio.IOStreams.IsOutputTTY() {
		t.Error("test streams should not be an output TTY")
	}
	if tio.IOStreams.IsStderrTTY() {
		t.Error("test streams should not be a stderr TTY")
	}
	if tio.IOStreams.IsInteractive() {
		t.Error("test streams should not be interactive")
	}
	if tio.IOStreams.ColorEnabled() {
		t.Error("test streams should have colors disabled")
	}
	if tio.IOStreams.CanPrompt() {
		t.Error("test streams should not allow prompts")
	}
}

func TestIOStreams_SetInteractive(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetInteractive(true)

	if !tio.IOStreams.IsInteractive() {
		t.Error("expected interactive after SetInteractive(true)")
	}
	if !tio.IOStreams.CanPrompt() {
		t.Error("expected CanPrompt after SetInteractive(true)")
	}

	tio.SetInteractive(false)
	if tio.IOStreams.IsInteractive() {
		t.Error("expected non-interactive after SetInteractive(false)")
	}
}

func TestIOStreams_SetColorEnabled(t *testing.T) {
	tio := NewTestIOStreams()

	tio.SetColorEnabled(true)
	if !tio.IOStreams.ColorEnabled() {
		t.Error("expected colors enabled")
	}

	tio.SetColorEnabled(false)
	if tio.IOStreams.ColorEnabled() {
		t.Error("expected colors disabled")
	}
}

func TestIOStreams_NeverPrompt(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetInteractive(true)

	tio.IOStreams.SetNeverPrompt(true)
	if tio.IOStreams.CanPrompt() {
		t.Error("CanPrompt should be false when never-prompt is set")
	}
	if !tio.IOStreams.GetNeverPrompt() {
		t.Error("GetNeverPrompt should report true")
	}

	tio.IOStreams.SetNeverPrompt(false)
	if !tio.IOStreams.CanPrompt() {
		t.Error("CanPrompt should be true again once never-prompt is cleared")
	}
}

func TestIOStreams_TerminalSize_Defaults(t *testing.T) {
	tio := NewTestIOStreams()

	w, h := tio.IOStreams.TerminalSize()
	if w != 80 || h != 24 {
		t.Errorf("TerminalSize() = (%d, %d), want (80, 24) fallback", w, h)
	}
	if tio.IOStreams.TerminalWidth() != 80 {
		t.Errorf("TerminalWidth() = %d, want 80", tio.IOStreams.TerminalWidth())
	}
}

func TestIOStreams_TerminalSize_Override(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetTerminalSize(120, 40)

	w, h := tio.IOStreams.TerminalSize()
	if w != 120 || h != 40 {
		t.Errorf("TerminalSize() = (%d, %d), want (120, 40)", w, h)
	}
}

func TestIOStreams_TerminalTheme_NonTTY(t *testing.T) {
	tio := NewTestIOStreams()

	if theme := tio.IOStreams.TerminalTheme(); theme != "none" {
		t.Errorf("TerminalTheme() = %q, want %q for non-TTY", theme, "none")
	}
}

func TestIOStreams_ColorScheme(t *testing.T) {
	tio := NewTestIOStreams()

	cs := tio.IOStreams.ColorScheme()
	if cs == nil {
		t.Fatal("ColorScheme() returned nil")
	}
	if cs.Enabled() {
		t.Error("scheme should be disabled for test streams")
	}

	tio.SetColorEnabled(true)
	if !tio.IOStreams.ColorScheme().Enabled() {
		t.Error("scheme should be enabled after SetColorEnabled(true)")
	}
}

func TestIOStreams_ProgressIndicator_DisabledByDefault(t *testing.T) {
	tio := NewTestIOStreams()

	tio.IOStreams.StartProgressIndicatorWithLabel("Building")
	tio.IOStreams.StopProgressIndicator()

	if tio.ErrBuf.String() != "" {
		t.Errorf("expected no output when progress disabled, got %q", tio.ErrBuf.String())
	}
}

func TestIOStreams_ProgressIndicator_TextualFallback(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetProgressEnabled(true)
	tio.SetSpinnerDisabled(true)

	tio.IOStreams.StartProgressIndicatorWithLabel("Deploying")
	tio.IOStreams.StopProgressIndicator()

	output := tio.ErrBuf.String()
	if !strings.Contains(output, "Deploying...") {
		t.Errorf("expected textual %q fallback, got %q", "Deploying...", output)
	}
}

func TestIOStreams_ProgressIndicator_TextualFallback_DefaultLabel(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetProgressEnabled(true)
	tio.SetSpinnerDisabled(true)

	tio.IOStreams.StartProgressIndicator()
	tio.IOStreams.StopProgressIndicator()

	output := tio.ErrBuf.String()
	if !strings.Contains(output, "Working...") {
		t.Errorf("expected default %q label, got %q", "Working...", output)
	}
}

func TestIOStreams_StopProgressIndicator_WithoutStart(t *testing.T) {
	tio := NewTestIOStreams()

	// Should not panic
	tio.IOStreams.StopProgressIndicator()
	tio.IOStreams.StopProgressIndicator()
}

func TestIOStreams_RunWithProgress(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetProgressEnabled(true)
	tio.SetSpinnerDisabled(true)

	ran := false
	err := tio.IOStreams.RunWithProgress("Rendering", func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunWithProgress returned error: %v", err)
	}
	if !ran {
		t.Error("function was not invoked")
	}
	if !strings.Contains(tio.ErrBuf.String(), "Rendering...") {
		t.Errorf("expected progress label in output, got %q", tio.ErrBuf.String())
	}
}

func TestIOStreams_RunWithProgress_Error(t *testing.T) {
	tio := NewTestIOStreams()
	tio.SetProgressEnabled(true)
	tio.SetSpinnerDisabled(true)

	wantErr := errors.New("registry unavailable")
	err := tio.IOStreams.RunWithProgress("Pushing", func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("RunWithProgress error = %v, want %v", err, wantErr)
	}
}

func TestIOStreams_SpinnerDisabledEnv(t *testing.T) {
	t.Setenv("GANTRY_SPINNER_DISABLED", "1")

	ios := NewIOStreams()
	if !ios.GetSpinnerDisabled() {
		t.Error("GANTRY_SPINNER_DISABLED should disable the spinner")
	}
}

func TestIOStreams_SetSpinnerDisabled(t *testing.T) {
	tio := NewTestIOStreams()

	tio.IOStreams.SetSpinnerDisabled(true)
	if !tio.IOStreams.GetSpinnerDisabled() {
		t.Error("expected spinner disabled")
	}

	tio.IOStreams.SetSpinnerDisabled(false)
	if tio.IOStreams.GetSpinnerDisabled() {
		t.Error("expected spinner enabled")
	}
}

func TestTestBuffer_ReadWrite(t *testing.T) {
	tio := NewTestIOStreams()
	tio.InBuf.SetInput("cluster-a\n")

	buf := make([]byte, 32)
	n, err := tio.IOStreams.In.Read(buf)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if got := string(buf[:n]); got != "cluster-a\n" {
		t.Errorf("Read = %q, want %q", got, "cluster-a\n")
	}
}

func TestTestBuffer_Reset(t *testing.T) {
	tio := NewTestIOStreams()

	tio.IOStreams.Out.Write([]byte("partial output"))
	if tio.OutBuf.String() == "" {
		t.Fatal("expected buffered output")
	}

	tio.OutBuf.Reset()
	if tio.OutBuf.String() != "" {
		t.Errorf("expected empty buffer after Reset, got %q", tio.OutBuf.String())
	}
}
