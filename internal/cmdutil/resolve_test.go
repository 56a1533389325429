package cmdutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/git"
)

func TestResolveTag(t *testing.T) {
	head := func() (*git.HeadInfo, error) {
		return &git.HeadInfo{SHA: "abc1234def5678", Branch: "main"}, nil
	}
	dirtyHead := func() (*git.HeadInfo, error) {
		return &git.HeadInfo{SHA: "abc1234def5678", Branch: "main", Dirty: true}, nil
	}
	noHead := func() (*git.HeadInfo, error) {
		return nil, errors.New("not a git repository")
	}

	cfg := config.DefaultConfig()

	tag, revision, branch, dirty := ResolveTag("42", cfg, head)
	assert.Equal(t, "42", tag, "flag wins")
	assert.Equal(t, "abc1234def5678", revision)
	assert.Equal(t, "main", branch)
	assert.False(t, dirty)

	cfg.Image.Tag = "pinned"
	tag, _, _, _ = ResolveTag("", cfg, head)
	assert.Equal(t, "pinned", tag, "config beats HEAD")

	cfg.Image.Tag = ""
	tag, _, _, dirty = ResolveTag("", cfg, dirtyHead)
	assert.Equal(t, (&git.HeadInfo{SHA: "abc1234def5678", Dirty: true}).Tag(), tag)
	assert.True(t, dirty)

	tag, revision, _, _ = ResolveTag("", cfg, noHead)
	assert.Empty(t, tag, "no source leaves the tag empty")
	assert.Empty(t, revision)
}
