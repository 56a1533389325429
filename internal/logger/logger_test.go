package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	Init(false)
	require.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Init(true)
	require.Equal(t, zerolog.DebugLevel, Log.GetLevel())
}

func TestInitWithFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &LoggingConfig{MaxSizeMB: 1}

	err := InitWithFile(true, tmpDir, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseFileWriter() })

	require.Equal(t, filepath.Join(tmpDir, "gantry.log"), GetLogFilePath())

	// Writing an entry creates the file
	Info().Str("stage", "build").Msg("test entry")
	_, err = os.Stat(GetLogFilePath())
	require.NoError(t, err)
}

func TestInitWithFile_Disabled(t *testing.T) {
	disabled := false
	cfg := &LoggingConfig{FileEnabled: &disabled}

	err := InitWithFile(false, t.TempDir(), cfg)
	require.NoError(t, err)

	require.Empty(t, GetLogFilePath())
}

func TestInitWithFile_EmptyDir(t *testing.T) {
	err := InitWithFile(false, "", &LoggingConfig{})
	require.NoError(t, err)
	require.Empty(t, GetLogFilePath())
}

func TestLoggingConfig_Defaults(t *testing.T) {
	cfg := &LoggingConfig{}

	require.True(t, cfg.IsFileEnabled())
	require.Equal(t, 50, cfg.GetMaxSizeMB())
	require.Equal(t, 7, cfg.GetMaxAgeDays())
	require.Equal(t, 3, cfg.GetMaxBackups())
}

func TestLoggingConfig_Explicit(t *testing.T) {
	enabled := true
	cfg := &LoggingConfig{
		FileEnabled: &enabled,
		MaxSizeMB:   10,
		MaxAgeDays:  1,
		MaxBackups:  5,
	}

	require.True(t, cfg.IsFileEnabled())
	require.Equal(t, 10, cfg.GetMaxSizeMB())
	require.Equal(t, 1, cfg.GetMaxAgeDays())
	require.Equal(t, 5, cfg.GetMaxBackups())
}

func TestSetContext(t *testing.T) {
	SetContext("web", "run-123")
	t.Cleanup(ClearContext)

	got := getContext()
	require.Equal(t, "web", got.Service)
	require.Equal(t, "run-123", got.Run)

	ClearContext()
	got = getContext()
	require.Empty(t, got.Service)
	require.Empty(t, got.Run)
}

func TestInteractiveMode_SuppressesConsole(t *testing.T) {
	Init(false)
	SetInteractiveMode(true)
	t.Cleanup(func() { SetInteractiveMode(false) })

	require.True(t, shouldSuppress())

	// Debug level disables suppression
	Init(true)
	require.False(t, shouldSuppress())
}

func TestLogFunctions(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &LoggingConfig{MaxSizeMB: 1}
	require.NoError(t, InitWithFile(true, tmpDir, cfg))
	t.Cleanup(func() { _ = CloseFileWriter() })

	require.NotNil(t, Debug())
	require.NotNil(t, Info())
	require.NotNil(t, Warn())
	require.NotNil(t, Error())
	// Fatal would exit; not exercised
}
