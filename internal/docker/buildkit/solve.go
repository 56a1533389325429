package buildkit

import (
	"fmt"
	"path/filepath"
	"strings"

	bkclient "github.com/moby/buildkit/client"
	"github.com/tonistiigi/fsutil"

	"github.com/schmitthub/gantry/internal/docker"
)

// toSolveOpt converts BuildKitOpts to a BuildKit SolveOpt.
// Labels are passed as FrontendAttrs with the "label:" prefix.
func toSolveOpt(opts docker.BuildKitOpts) (bkclient.SolveOpt, error) {
	attrs := make(map[string]string)

	// Dockerfile filename (relative to its mount dir)
	dockerfile := opts.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}
	attrs["filename"] = filepath.Base(dockerfile)

	for k, v := range opts.BuildArgs {
		if v != nil {
			attrs["build-arg:"+k] = *v
		}
	}

	for k, v := range opts.Labels {
		attrs["label:"+k] = v
	}

	if opts.NoCache {
		attrs["no-cache"] = ""
	}

	if opts.Target != "" {
		attrs["target"] = opts.Target
	}

	if opts.Pull {
		attrs["image-resolve-mode"] = "pull"
	}

	// Local mounts: context and dockerfile directory
	contextDir, err := filepath.Abs(opts.ContextDir)
	if err != nil {
		return bkclient.SolveOpt{}, fmt.Errorf("buildkit: resolve context dir: %w", err)
	}

	contextFS, err := fsutil.NewFS(contextDir)
	if err != nil {
		return bkclient.SolveOpt{}, fmt.Errorf("buildkit: create context fs: %w", err)
	}

	dockerfileDir := contextDir
	if dir := filepath.Dir(dockerfile); dir != "." && filepath.IsAbs(dir) {
		dockerfileDir = dir
	}

	dockerfileFS, err := fsutil.NewFS(dockerfileDir)
	if err != nil {
		return bkclient.SolveOpt{}, fmt.Errorf("buildkit: create dockerfile fs: %w", err)
	}

	// Export entry: build to the local Docker image store; publishing is a
	// separate pipeline stage.
	exportAttrs := map[string]string{
		"push": "false",
	}
	if len(opts.Tags) > 0 {
		exportAttrs["name"] = strings.Join(opts.Tags, ",")
	}

	return bkclient.SolveOpt{
		Frontend:      "dockerfile.v0",
		FrontendAttrs: attrs,
		LocalMounts: map[string]fsutil.FS{
			"context":    contextFS,
			"dockerfile": dockerfileFS,
		},
		Exports: []bkclient.ExportEntry{{
			Type:  "image",
			Attrs: exportAttrs,
		}},
	}, nil
}
