package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T, workDir string) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Service = ServiceConfig{Cluster: "production", Service: "app", Region: "us-east-1"}
	cfg.Image = ImageConfig{Repository: "example.com/app"}
	cfg.Build.BaseImage = "node:20-alpine"
	cfg.Build.Command = "node server.js"
	cfg.Task.Container = "app"
	require.NoError(t, os.MkdirAll(filepath.Join(workDir), 0o755))
	return cfg
}

func TestValidateOK(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, dir)

	v := NewValidator(dir)
	require.NoError(t, v.Validate(cfg))
	assert.Empty(t, v.Warnings())
}

func TestValidateMissingFields(t *testing.T) {
	dir := t.TempDir()

	v := NewValidator(dir)
	err := v.Validate(&Config{})
	require.Error(t, err)

	multi, ok := err.(*MultiValidationError)
	require.True(t, ok)

	fields := map[string]bool{}
	for _, e := range multi.ValidationErrors() {
		fields[e.(*ValidationError).Field] = true
	}
	assert.True(t, fields["version"])
	assert.True(t, fields["service.cluster"])
	assert.True(t, fields["service.service"])
	assert.True(t, fields["image.repository"])
	assert.True(t, fields["task.template"])
	assert.True(t, fields["task.container"])
}

func TestValidateUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, dir)
	cfg.Version = "2"

	err := NewValidator(dir).Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only supported version")
}

func TestValidateMissingDockerfile(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, dir)
	cfg.Build.Dockerfile = "Dockerfile.missing"

	err := NewValidator(dir).Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.dockerfile")
}

func TestValidateCustomDockerfileSkipsRecipeFields(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	cfg.Build.Dockerfile = "Dockerfile"
	cfg.Build.BaseImage = ""
	cfg.Build.Command = ""

	require.NoError(t, NewValidator(dir).Validate(cfg))
}

func TestValidateShortTimeoutWarns(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, dir)
	cfg.Deploy.Timeout = 5 * time.Second

	v := NewValidator(dir)
	require.NoError(t, v.Validate(cfg))
	assert.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0], "deploy.timeout")
}

func TestValidateBadPort(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig(t, dir)
	cfg.Build.Port = 70000

	err := NewValidator(dir).Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.port")
}
