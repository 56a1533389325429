package check

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/taskdef"
)

func newCheckOptions(t *testing.T, dir string) (*CheckOptions, *iostreams.TestIOStreams) {
	t.Helper()
	ios := iostreams.NewTestIOStreams()
	loader := config.NewLoader(dir)

	return &CheckOptions{
		IOStreams:    ios.IOStreams,
		ConfigLoader: func() *config.Loader { return loader },
		Config:       loader.Load,
		WorkDir:      dir,
	}, ios
}

func scaffoldProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := config.Scaffold(dir, config.ScaffoldParams{
		Cluster:    "production",
		Service:    "web",
		Region:     "us-east-1",
		Repository: "123456789012.dkr.ecr.us-east-1.amazonaws.com/web",
		Port:       3000,
	})
	require.NoError(t, err)
	return dir
}

func TestCheckValidProject(t *testing.T) {
	dir := scaffoldProject(t)
	opts, ios := newCheckOptions(t, dir)

	require.NoError(t, checkRun(context.Background(), opts))
	assert.Contains(t, ios.ErrBuf.String(), "Configuration and template are valid")
}

func TestCheckMissingConfig(t *testing.T) {
	opts, _ := newCheckOptions(t, t.TempDir())

	err := checkRun(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, config.IsConfigNotFound(err))
}

func TestCheckContainerMismatch(t *testing.T) {
	dir := scaffoldProject(t)

	cfgPath := filepath.Join(dir, "gantry.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "container: web", "container: bogus", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(edited), 0o644))

	opts, ios := newCheckOptions(t, dir)

	err = checkRun(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, taskdef.IsTemplateError(err))
	assert.Contains(t, ios.ErrBuf.String(), "is invalid")
}

func TestCheckBrokenTemplate(t *testing.T) {
	dir := scaffoldProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taskdef.json"), []byte("{not json"), 0o644))

	opts, _ := newCheckOptions(t, dir)

	err := checkRun(context.Background(), opts)
	require.Error(t, err)
}
