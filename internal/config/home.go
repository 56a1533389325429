package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GantryHomeEnv overrides the gantry state directory when set.
const GantryHomeEnv = "GANTRY_HOME"

// StateDir returns the gantry state directory, creating it if needed.
// Resolution: $GANTRY_HOME > ~/.local/gantry.
func StateDir() (string, error) {
	dir := os.Getenv(GantryHomeEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".local", "gantry")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}
	return dir, nil
}

// LogsDir returns the directory for rotating file logs, creating it if needed.
func LogsDir() (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(state, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating logs directory: %w", err)
	}
	return dir, nil
}

// LocksDir returns the directory for per-service deploy locks, creating it
// if needed.
func LocksDir() (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(state, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating locks directory: %w", err)
	}
	return dir, nil
}
