package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/iostreams"
)

func TestPushFlagWiring(t *testing.T) {
	f := &cmdutil.Factory{IOStreams: iostreams.NewTestIOStreams().IOStreams}

	var got *PushOptions
	cmd := NewCmdPush(f, func(_ context.Context, opts *PushOptions) error {
		got = opts
		return nil
	})
	cmd.SetArgs([]string{"-t", "42", "--no-latest", "-q"})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "42", got.Tag)
	assert.True(t, got.NoLatest)
	assert.True(t, got.Quiet)
}

func TestPushRejectsArgs(t *testing.T) {
	f := &cmdutil.Factory{IOStreams: iostreams.NewTestIOStreams().IOStreams}

	cmd := NewCmdPush(f, func(_ context.Context, _ *PushOptions) error { return nil })
	cmd.SetArgs([]string{"web:42"})
	cmd.SetOut(iostreams.NewTestIOStreams().Out)
	cmd.SetErr(iostreams.NewTestIOStreams().ErrOut)

	assert.Error(t, cmd.Execute())
}
