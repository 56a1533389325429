// Package pipeline runs the deployment sequence: build the image, publish
// it, render the task definition, submit the revision, wait for stability.
//
// The pipeline is strictly sequential and fail-fast: each stage consumes
// the previous stage's immutable output, the first failure ends the run,
// and nothing is retried. A failed run changes nothing downstream of its
// failing stage. Recovery is rollback-by-inaction.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"

	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/dockerfile"
	"github.com/schmitthub/gantry/internal/imageref"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/internal/rollout"
	"github.com/schmitthub/gantry/internal/taskdef"
)

// Authenticator resolves push credentials for a registry host.
type Authenticator interface {
	AuthHeader(ctx context.Context, host string) (string, error)
}

// Options configures a single pipeline run.
type Options struct {
	Config       *config.Config
	WorkDir      string
	TemplatePath string

	// Tag is the resolved image tag (--tag > config > git HEAD).
	Tag string

	// Revision and Branch annotate the built image. Optional. Dirty
	// reports uncommitted changes; a dirty tree disables the
	// content-hash build skip.
	Revision string
	Branch   string
	Dirty    bool

	SkipBuild bool
	Wait      bool
	Timeout   time.Duration

	BuildKitEnabled bool

	// Per-run build knobs layered over the build config.
	NoCache   bool
	Pull      bool
	Target    string
	BuildArgs map[string]string
	Labels    map[string]string

	// PushLatest overrides image.push_latest when non-nil.
	PushLatest *bool
}

// Result is the outcome of a completed run.
type Result struct {
	RunID     string
	ImageRef  imageref.Ref
	LatestRef imageref.Ref
	Digest    digest.Digest
	Revision  string // task definition revision ARN
	State     rollout.State
}

// Hooks observe run progress. All fields are optional.
type Hooks struct {
	OnStageStart   func(stage Stage)
	OnStageDone    func(stage Stage)
	OnBuildOutput  func(line string)
	OnPushProgress func(line string)
	OnTransition   func(state rollout.State)
	OnServiceEvent func(at time.Time, message string)
}

// Runner executes pipeline runs. Construct one per command invocation.
type Runner struct {
	Docker       *docker.Client
	Auth         Authenticator
	Orchestrator *rollout.Orchestrator
	Hooks        Hooks
}

// Run executes the full sequence. The returned Result is valid only when
// err is nil; err is always a *StageError naming the failing stage.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := uuid.NewString()
	logger.SetContext(opts.Config.Service.Service, runID)
	logger.Info().
		Str("cluster", opts.Config.Service.Cluster).
		Str("tag", opts.Tag).
		Msg("pipeline run starting")

	result := &Result{RunID: runID}

	ref, err := r.ResolveRef(opts)
	if err != nil {
		return nil, stageErr(StageBuild, err)
	}
	result.ImageRef = ref

	if !opts.SkipBuild {
		if err := r.Build(ctx, opts, ref); err != nil {
			return nil, err
		}
	}

	dgst, latestRef, err := r.Publish(ctx, opts, ref)
	if err != nil {
		return nil, err
	}
	result.Digest = dgst
	result.LatestRef = latestRef

	doc, err := r.Render(opts, ref)
	if err != nil {
		return nil, err
	}

	revisionARN, err := r.Submit(ctx, opts, doc)
	if err != nil {
		return nil, err
	}
	result.Revision = revisionARN
	result.State = rollout.StateSubmitted

	if opts.Wait {
		state, err := r.waitStable(ctx, opts, revisionARN)
		result.State = state
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// ResolveRef derives the full image reference for this run from the
// configured repository and the resolved tag.
func (r *Runner) ResolveRef(opts Options) (imageref.Ref, error) {
	name, err := imageref.ParseName(opts.Config.Image.Repository)
	if err != nil {
		return imageref.Ref{}, fmt.Errorf("image.repository: %w", err)
	}
	if opts.Tag == "" {
		return imageref.Ref{}, fmt.Errorf("no image tag: set --tag, image.tag, or run inside a git repository")
	}
	return name.WithTag(opts.Tag), nil
}

// Build produces the local image for ref from the configured recipe or
// Dockerfile. Exposed for `gantry build`.
func (r *Runner) Build(ctx context.Context, opts Options, ref imageref.Ref) error {
	r.start(StageBuild)

	contextDir := opts.Config.Build.Context
	if contextDir == "" {
		contextDir = config.DefaultBuildContext
	}
	if !filepath.IsAbs(contextDir) {
		contextDir = filepath.Join(opts.WorkDir, contextDir)
	}

	buildOpts := docker.BuildImageOpts{
		Tags: []string{ref.String()},
		Labels: docker.MergeLabels(
			docker.MergeLabels(
				docker.BuildLabels(opts.Config.Service.Service, ref.Tag, opts.Revision, opts.Branch),
				opts.Config.Build.Labels,
			),
			opts.Labels,
		),
		NoCache:         opts.NoCache,
		Pull:            opts.Pull,
		Target:          opts.Target,
		BuildKitEnabled: opts.BuildKitEnabled,
		ContextDir:      contextDir,
		OnOutput:        r.Hooks.OnBuildOutput,
	}
	for _, args := range []map[string]string{opts.Config.Build.Args, opts.BuildArgs} {
		for k, v := range args {
			if buildOpts.BuildArgs == nil {
				buildOpts.BuildArgs = make(map[string]*string)
			}
			buildOpts.BuildArgs[k] = &v
		}
	}

	if opts.Config.Build.UseCustomDockerfile() {
		buildOpts.Dockerfile = opts.Config.Build.Dockerfile
		tar, err := dockerfile.ContextTar(contextDir, nil)
		if err != nil {
			return stageErr(StageBuild, err)
		}
		if err := r.Docker.BuildImage(ctx, tar, buildOpts); err != nil {
			return stageErr(StageBuild, err)
		}
	} else {
		recipe, err := dockerfile.NewGenerator(&opts.Config.Build).Generate()
		if err != nil {
			return stageErr(StageBuild, err)
		}

		// Content-hash short-circuit: a clean revision plus the rendered
		// recipe fully describe the image inputs. When a previous build
		// with the same content tag exists locally, re-point the primary
		// tag instead of rebuilding. Custom Dockerfiles bypass hashing
		// entirely; --no-cache and --pull force a fresh build.
		if hashRef, ok := contentRef(ref, recipe, opts); ok {
			exists, err := r.Docker.ImageExists(ctx, hashRef.String())
			if err != nil {
				return stageErr(StageBuild, err)
			}
			if exists {
				logger.Debug().Str("image", hashRef.String()).Msg("image up-to-date, skipping build")
				if err := r.Docker.TagImage(ctx, hashRef.String(), ref.String()); err != nil {
					return stageErr(StageBuild, err)
				}
				r.done(StageBuild)
				return nil
			}
			// Tag the fresh build with the content tag so the next clean
			// build of this revision can skip.
			buildOpts.Tags = append(buildOpts.Tags, hashRef.String())
		}

		if opts.BuildKitEnabled && r.Docker.BuildKitBuilder != nil {
			// BuildKit mounts directories; materialise the recipe in a
			// scratch dir besides the user's context.
			tmp, err := os.MkdirTemp("", "gantry-dockerfile-")
			if err != nil {
				return stageErr(StageBuild, err)
			}
			defer os.RemoveAll(tmp)
			path, err := dockerfile.WriteContextDir(tmp, recipe)
			if err != nil {
				return stageErr(StageBuild, err)
			}
			buildOpts.Dockerfile = path
			if err := r.Docker.BuildImage(ctx, nil, buildOpts); err != nil {
				return stageErr(StageBuild, err)
			}
		} else {
			tar, err := dockerfile.ContextTar(contextDir, recipe)
			if err != nil {
				return stageErr(StageBuild, err)
			}
			if err := r.Docker.BuildImage(ctx, tar, buildOpts); err != nil {
				return stageErr(StageBuild, err)
			}
		}
	}

	r.done(StageBuild)
	return nil
}

// contentRef derives the content-addressed alias tag for a recipe build.
// Returns false when skipping would be unsound: no revision, uncommitted
// changes, or an explicit fresh-build flag.
func contentRef(ref imageref.Ref, recipe []byte, opts Options) (imageref.Ref, bool) {
	if opts.Revision == "" || opts.Dirty || opts.NoCache || opts.Pull {
		return imageref.Ref{}, false
	}

	merged := make(map[string]string)
	for _, args := range []map[string]string{opts.Config.Build.Args, opts.BuildArgs} {
		for k, v := range args {
			merged[k] = v
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inputs := []string{opts.Revision, opts.Target}
	for _, k := range keys {
		inputs = append(inputs, k+"="+merged[k])
	}

	return ref.Name.WithTag("build-" + dockerfile.ContentHash(recipe, inputs...)), true
}

// Publish pushes ref (and, when configured, a latest alias) and returns
// the manifest digest. Exposed for `gantry push`.
func (r *Runner) Publish(ctx context.Context, opts Options, ref imageref.Ref) (digest.Digest, imageref.Ref, error) {
	r.start(StagePublish)

	auth, err := r.Auth.AuthHeader(ctx, ref.Name.Registry)
	if err != nil {
		return "", imageref.Ref{}, stageErr(StagePublish, err)
	}

	pushOpts := docker.PushImageOpts{
		RegistryAuth: auth,
		OnProgress:   r.Hooks.OnPushProgress,
	}
	dgst, err := r.Docker.PushImage(ctx, ref.String(), pushOpts)
	if err != nil {
		return "", imageref.Ref{}, stageErr(StagePublish, err)
	}

	pushLatest := opts.Config.Image.ShouldPushLatest()
	if opts.PushLatest != nil {
		pushLatest = *opts.PushLatest
	}

	var latestRef imageref.Ref
	if pushLatest && ref.Tag != "latest" {
		latestRef = ref.Name.WithTag("latest")
		if err := r.Docker.TagImage(ctx, ref.String(), latestRef.String()); err != nil {
			return "", imageref.Ref{}, stageErr(StagePublish, err)
		}
		if _, err := r.Docker.PushImage(ctx, latestRef.String(), pushOpts); err != nil {
			return "", imageref.Ref{}, stageErr(StagePublish, err)
		}
	}

	r.done(StagePublish)
	return dgst, latestRef, nil
}

// Render loads the template, replaces the matching container's image and
// validates the result. Exposed for `gantry render`.
func (r *Runner) Render(opts Options, ref imageref.Ref) (*taskdef.Document, error) {
	r.start(StageRender)

	doc, err := taskdef.Load(opts.TemplatePath)
	if err != nil {
		return nil, stageErr(StageRender, err)
	}

	rendered, err := doc.Render(opts.Config.Task.Container, ref.String())
	if err != nil {
		return nil, stageErr(StageRender, err)
	}
	if err := rendered.Validate(); err != nil {
		return nil, stageErr(StageRender, err)
	}

	r.done(StageRender)
	return rendered, nil
}

// Submit registers the revision and points the service at it.
func (r *Runner) Submit(ctx context.Context, opts Options, doc *taskdef.Document) (string, error) {
	r.start(StageSubmit)

	input, err := doc.RegisterInput()
	if err != nil {
		return "", stageErr(StageSubmit, err)
	}
	revisionARN, err := r.Orchestrator.RegisterRevision(ctx, input)
	if err != nil {
		return "", stageErr(StageSubmit, err)
	}
	if err := r.Orchestrator.UpdateService(ctx, opts.Config.Service.Cluster, opts.Config.Service.Service, revisionARN); err != nil {
		return "", stageErr(StageSubmit, err)
	}

	r.done(StageSubmit)
	return revisionARN, nil
}

func (r *Runner) waitStable(ctx context.Context, opts Options, revisionARN string) (rollout.State, error) {
	r.start(StageWait)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultDeployTimeout
	}
	r.Orchestrator.OnTransition = r.Hooks.OnTransition
	r.Orchestrator.OnServiceEvent = r.Hooks.OnServiceEvent

	state, err := r.Orchestrator.Wait(ctx, opts.Config.Service.Cluster, opts.Config.Service.Service, revisionARN, timeout)
	if err != nil {
		return state, stageErr(StageWait, err)
	}

	r.done(StageWait)
	return state, nil
}

func (r *Runner) start(stage Stage) {
	logger.Debug().Str("stage", string(stage)).Msg("stage starting")
	if r.Hooks.OnStageStart != nil {
		r.Hooks.OnStageStart(stage)
	}
}

func (r *Runner) done(stage Stage) {
	logger.Debug().Str("stage", string(stage)).Msg("stage complete")
	if r.Hooks.OnStageDone != nil {
		r.Hooks.OnStageDone(stage)
	}
}
