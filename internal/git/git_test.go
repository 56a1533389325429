package git

import (
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v6/memfs"
	gogit "github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo creates an in-memory repository with one commit on the default
// branch. Returns the repo and the worktree filesystem for dirtying.
func newTestRepo(t *testing.T) (*gogit.Repository, *gogit.Worktree) {
	t.Helper()

	dotGitFS := memfs.New()
	worktreeFS := memfs.New()
	storer := filesystem.NewStorage(dotGitFS, cache.NewObjectLRUDefault())

	repo, err := gogit.Init(storer, gogit.WithWorkTree(worktreeFS))
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	f, err := worktreeFS.Create("main.go")
	require.NoError(t, err)
	_, err = f.Write([]byte("package main\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = wt.Add("main.go")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return repo, wt
}

func TestHeadOfRepo(t *testing.T) {
	repo, _ := newTestRepo(t)

	info, err := HeadOfRepo(repo)
	require.NoError(t, err)

	assert.Len(t, info.SHA, 40)
	assert.Len(t, info.ShortSHA(), ShortSHALen)
	assert.True(t, strings.HasPrefix(info.SHA, info.ShortSHA()))
	assert.NotEmpty(t, info.Branch)
	assert.False(t, info.Dirty)
	assert.Equal(t, info.ShortSHA(), info.Tag())
}

func TestHeadOfRepoDirty(t *testing.T) {
	repo, wt := newTestRepo(t)

	f, err := wt.Filesystem.Create("extra.go")
	require.NoError(t, err)
	_, err = f.Write([]byte("package main\n\nvar extra = true\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := HeadOfRepo(repo)
	require.NoError(t, err)

	assert.True(t, info.Dirty)
	assert.Equal(t, info.ShortSHA()+"-dirty", info.Tag())
}

func TestHeadNotARepository(t *testing.T) {
	_, err := Head(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestShortSHAShortInput(t *testing.T) {
	info := &HeadInfo{SHA: "abc"}
	assert.Equal(t, "abc", info.ShortSHA())
}
