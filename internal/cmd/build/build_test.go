package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/iostreams"
)

func TestBuildFlagWiring(t *testing.T) {
	f := &cmdutil.Factory{IOStreams: iostreams.NewTestIOStreams().IOStreams}

	var got *BuildOptions
	cmd := NewCmdBuild(f, func(_ context.Context, opts *BuildOptions) error {
		got = opts
		return nil
	})
	cmd.SetArgs([]string{
		"-t", "42", "-q",
		"--no-cache", "--pull",
		"--target", "release",
		"--build-arg", "NODE_ENV=production",
		"--build-arg", "PORT=3000",
		"--label", "team=platform",
	})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "42", got.Tag)
	assert.True(t, got.Quiet)
	assert.True(t, got.NoCache)
	assert.True(t, got.Pull)
	assert.Equal(t, "release", got.Target)
	assert.Equal(t, []string{"NODE_ENV=production", "PORT=3000"}, got.BuildArgs)
	assert.Equal(t, []string{"team=platform"}, got.Labels)
}

func TestBuildFlagConflicts(t *testing.T) {
	f := &cmdutil.Factory{IOStreams: iostreams.NewTestIOStreams().IOStreams}

	cmd := NewCmdBuild(f, func(_ context.Context, _ *BuildOptions) error { return nil })
	cmd.SetArgs([]string{"--buildkit", "--no-buildkit"})
	cmd.SetOut(iostreams.NewTestIOStreams().Out)
	cmd.SetErr(iostreams.NewTestIOStreams().ErrOut)

	assert.Error(t, cmd.Execute())
}

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"A=1", "B=", "C=x=y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "", "C": "x=y"}, got)

	_, err = parseKeyValues([]string{"=oops"})
	assert.Error(t, err)

	_, err = parseKeyValues([]string{"noequals"})
	assert.Error(t, err)

	got, err = parseKeyValues(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveBuildKit(t *testing.T) {
	detect := func(context.Context) (bool, error) { return true, nil }

	got, err := resolveBuildKit(context.Background(), &BuildOptions{NoBuildKit: true, BuildKitEnabled: detect})
	require.NoError(t, err)
	assert.False(t, got)

	got, err = resolveBuildKit(context.Background(), &BuildOptions{BuildKit: true})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = resolveBuildKit(context.Background(), &BuildOptions{BuildKitEnabled: detect})
	require.NoError(t, err)
	assert.True(t, got)
}
