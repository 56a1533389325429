package render

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

func newRenderOptions(t *testing.T, dir string) (*RenderOptions, *iostreams.TestIOStreams) {
	t.Helper()
	ios := iostreams.NewTestIOStreams()
	loader := config.NewLoader(dir)

	return &RenderOptions{
		IOStreams:    ios.IOStreams,
		ConfigLoader: func() *config.Loader { return loader },
		Config:       loader.Load,
		ResetConfig:  func() {},
		WorkDir:      dir,
	}, ios
}

func TestRenderToStdout(t *testing.T) {
	dir := scaffoldProject(t)
	opts, ios := newRenderOptions(t, dir)
	opts.Tag = "42"

	require.NoError(t, renderRun(context.Background(), opts))

	out := ios.OutBuf.String()
	assert.Contains(t, out, `"image": "123456789012.dkr.ecr.us-east-1.amazonaws.com/web:42"`)
	assert.Contains(t, out, `"family": "web"`, "untouched fields pass through")
}

func TestRenderImageOverride(t *testing.T) {
	dir := scaffoldProject(t)
	opts, ios := newRenderOptions(t, dir)
	opts.Image = "registry.example.com/web:canary"

	require.NoError(t, renderRun(context.Background(), opts))
	assert.Contains(t, ios.OutBuf.String(), `"image": "registry.example.com/web:canary"`)
}

func TestRenderInvalidImageOverride(t *testing.T) {
	dir := scaffoldProject(t)
	opts, _ := newRenderOptions(t, dir)
	opts.Image = ":::"

	err := renderRun(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --image")
}

func TestRenderToFileIsDeterministic(t *testing.T) {
	dir := scaffoldProject(t)
	opts, _ := newRenderOptions(t, dir)
	opts.Tag = "42"
	opts.Output = filepath.Join(dir, "rendered.json")

	require.NoError(t, renderRun(context.Background(), opts))
	first, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	require.NoError(t, renderRun(context.Background(), opts))
	second, err := os.ReadFile(opts.Output)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderContainerMismatch(t *testing.T) {
	dir := scaffoldProject(t)

	cfgPath := filepath.Join(dir, "gantry.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "container: web", "container: bogus", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(edited), 0o644))

	opts, _ := newRenderOptions(t, dir)
	opts.Tag = "42"

	err = renderRun(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, taskdef.IsTemplateError(err))
	assert.Contains(t, err.Error(), "bogus")
}

func TestRenderWatchRequiresOutput(t *testing.T) {
	dir := scaffoldProject(t)
	opts, _ := newRenderOptions(t, dir)
	opts.Tag = "42"
	opts.Watch = true

	err := renderRun(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires --output")
}
