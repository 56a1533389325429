package initcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/prompter"
)

func TestInitScaffoldsFiles(t *testing.T) {
	dir := t.TempDir()
	ios := iostreams.NewTestIOStreams()

	opts := &InitOptions{
		IOStreams:  ios.IOStreams,
		WorkDir:    dir,
		Cluster:    "production",
		Service:    "web",
		Region:     "us-east-1",
		Repository: "123456789012.dkr.ecr.us-east-1.amazonaws.com/web",
		Port:       3000,
	}

	require.NoError(t, initRun(context.Background(), opts))

	cfgData, err := os.ReadFile(filepath.Join(dir, "gantry.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfgData), "cluster: production")
	assert.Contains(t, string(cfgData), "service: web")

	tmplData, err := os.ReadFile(filepath.Join(dir, "taskdef.json"))
	require.NoError(t, err)
	assert.Contains(t, string(tmplData), `"name": "web"`)

	assert.Contains(t, ios.ErrBuf.String(), "Created gantry.yaml")
	assert.Contains(t, ios.ErrBuf.String(), "Created taskdef.json")
}

func TestInitNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	custom := []byte("version: \"1\"\n# hand-edited\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gantry.yaml"), custom, 0o644))

	ios := iostreams.NewTestIOStreams()
	opts := &InitOptions{
		IOStreams:  ios.IOStreams,
		WorkDir:    dir,
		Cluster:    "default",
		Service:    "web",
		Region:     "us-east-1",
		Repository: "registry.example.com/web",
		Port:       3000,
	}

	require.NoError(t, initRun(context.Background(), opts))

	data, err := os.ReadFile(filepath.Join(dir, "gantry.yaml"))
	require.NoError(t, err)
	assert.Equal(t, custom, data, "existing config must survive init")

	_, err = os.Stat(filepath.Join(dir, "taskdef.json"))
	assert.NoError(t, err, "missing template is still scaffolded")
}

func TestInitPromptsForMissingValues(t *testing.T) {
	dir := t.TempDir()
	ios := iostreams.NewTestIOStreams()
	ios.SetInteractive(true)
	ios.InBuf.SetInput("web\nregistry.example.com/web\n")

	opts := &InitOptions{
		IOStreams: ios.IOStreams,
		Prompter:  func() *prompter.Prompter { return prompter.New(ios.IOStreams) },
		WorkDir:   dir,
		Cluster:   "default",
		Region:    "us-east-1",
		Port:      3000,
	}

	require.NoError(t, initRun(context.Background(), opts))
	assert.Equal(t, "web", opts.Service)
	assert.Equal(t, "registry.example.com/web", opts.Repository)
	assert.Contains(t, ios.ErrBuf.String(), "Service name: ")

	data, err := os.ReadFile(filepath.Join(dir, "gantry.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "service: web")
}

func TestInitNonInteractiveRequiresFlags(t *testing.T) {
	ios := iostreams.NewTestIOStreams()

	opts := &InitOptions{
		IOStreams: ios.IOStreams,
		Prompter:  func() *prompter.Prompter { return prompter.New(ios.IOStreams) },
		WorkDir:   t.TempDir(),
	}

	err := initRun(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestInitFlagWiring(t *testing.T) {
	f := &cmdutil.Factory{IOStreams: iostreams.NewTestIOStreams().IOStreams}

	var got *InitOptions
	cmd := NewCmdInit(f, func(_ context.Context, opts *InitOptions) error {
		got = opts
		return nil
	})
	cmd.SetArgs([]string{
		"--service", "web",
		"--repository", "registry.example.com/web",
		"--cluster", "staging",
		"--container", "app",
		"--port", "8080",
	})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "web", got.Service)
	assert.Equal(t, "staging", got.Cluster)
	assert.Equal(t, "app", got.Container)
	assert.Equal(t, 8080, got.Port)
}
