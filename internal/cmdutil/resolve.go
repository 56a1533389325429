package cmdutil

import (
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/git"
)

// ResolveTag picks the image tag for a run: the --tag flag wins, then
// image.tag from config, then the short SHA of git HEAD. Revision and
// branch are taken from HEAD when available, for image annotations;
// dirty reports uncommitted changes in the work tree.
// An empty tag is returned when none of the sources apply; the pipeline
// rejects it with a user-facing error.
func ResolveTag(flagTag string, cfg *config.Config, head func() (*git.HeadInfo, error)) (tag, revision, branch string, dirty bool) {
	var info *git.HeadInfo
	if head != nil {
		info, _ = head()
	}
	if info != nil {
		revision = info.SHA
		branch = info.Branch
		dirty = info.Dirty
	}

	switch {
	case flagTag != "":
		tag = flagTag
	case cfg.Image.Tag != "":
		tag = cfg.Image.Tag
	case info != nil:
		tag = info.Tag()
	}
	return tag, revision, branch, dirty
}
