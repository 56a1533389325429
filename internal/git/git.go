// Package git provides read-only git repository inspection.
//
// This is a Tier 1 (Leaf) package in the gantry architecture:
//   - It imports ONLY stdlib and go-git packages
//   - It does NOT import any internal packages
//
// gantry uses git solely to derive default image tags from the commit that
// triggered a pipeline run: the HEAD short SHA, with a "-dirty" suffix when
// the work tree has uncommitted changes.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v6"
)

// ShortSHALen is the abbreviated commit hash length used for image tags.
const ShortSHALen = 12

// ErrNotRepository is returned when the path is not inside a git repository.
var ErrNotRepository = errors.New("not a git repository")

// HeadInfo describes the HEAD commit of a repository at inspection time.
type HeadInfo struct {
	// SHA is the full 40-character commit hash.
	SHA string
	// Branch is the checked-out branch name, or "" for a detached HEAD.
	Branch string
	// Dirty reports whether the work tree has uncommitted changes.
	Dirty bool
}

// ShortSHA returns the abbreviated commit hash.
func (h *HeadInfo) ShortSHA() string {
	if len(h.SHA) < ShortSHALen {
		return h.SHA
	}
	return h.SHA[:ShortSHALen]
}

// Tag returns the default image tag derived from HEAD: the short SHA, with
// a "-dirty" suffix when the work tree has uncommitted changes.
func (h *HeadInfo) Tag() string {
	tag := h.ShortSHA()
	if h.Dirty {
		tag += "-dirty"
	}
	return tag
}

// Head opens the repository containing path (walking up to find the root)
// and reports its HEAD state.
//
// Returns ErrNotRepository (wrapped) if path is not inside a git repository.
func Head(path string) (*HeadInfo, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return HeadOfRepo(repo)
}

// HeadOfRepo reports the HEAD state of an already-open repository.
// Primarily used by tests with in-memory repositories.
func HeadOfRepo(repo *gogit.Repository) (*HeadInfo, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	info := &HeadInfo{SHA: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repository: no work tree to be dirty.
		return info, nil
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading work tree status: %w", err)
	}
	info.Dirty = !status.IsClean()

	return info, nil
}
