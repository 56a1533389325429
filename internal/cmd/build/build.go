// Package build provides the build command.
package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/git"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/pipeline"
	"github.com/schmitthub/gantry/internal/signals"
)

// BuildOptions contains the options for the build command.
type BuildOptions struct {
	IOStreams       *iostreams.IOStreams
	Config          func() (*config.Config, error)
	DockerClient    func(context.Context) (*docker.Client, error)
	BuildKitEnabled func(context.Context) (bool, error)
	Head            func() (*git.HeadInfo, error)
	WorkDir         string

	Tag       string   // --tag
	Quiet     bool     // -q, --quiet
	NoCache   bool     // --no-cache
	Pull      bool     // --pull
	Target    string   // --target
	BuildArgs []string // --build-arg KEY=VALUE
	Labels    []string // --label KEY=VALUE

	// BuildKit / NoBuildKit override auto-detection.
	BuildKit   bool
	NoBuildKit bool
}

// NewCmdBuild creates the build command.
func NewCmdBuild(f *cmdutil.Factory, runF func(context.Context, *BuildOptions) error) *cobra.Command {
	opts := &BuildOptions{
		IOStreams:       f.IOStreams,
		Config:          f.Config,
		DockerClient:    f.DockerClient,
		BuildKitEnabled: f.BuildKitEnabled,
		Head:            f.Head,
	}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the service image",
		Long: `Builds the service image from gantry.yaml, either through the generated
recipe (build.base_image, build.command and friends) or a custom
Dockerfile when build.dockerfile is set.

The image is tagged with --tag, image.tag from config, or the short SHA
of the current git HEAD, in that order.`,
		Example: `  # Build with the tag derived from git HEAD
  gantry build

  # Build a specific tag
  gantry build --tag 42`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return buildRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "Tag for the built image")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress build output")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Build without using the layer cache")
	cmd.Flags().BoolVar(&opts.Pull, "pull", false, "Always pull the base image")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Dockerfile stage to build")
	cmd.Flags().StringArrayVar(&opts.BuildArgs, "build-arg", nil, "Build argument as KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Labels, "label", nil, "Image label as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&opts.BuildKit, "buildkit", false, "Force the BuildKit build path")
	cmd.Flags().BoolVar(&opts.NoBuildKit, "no-buildkit", false, "Force the classic build path")
	cmd.MarkFlagsMutuallyExclusive("buildkit", "no-buildkit")

	return cmd
}

func buildRun(ctx context.Context, opts *BuildOptions) error {
	ctx, cancel := signals.SetupSignalContext(ctx)
	defer cancel()

	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	if err := config.NewValidator(opts.WorkDir).Validate(cfg); err != nil {
		return err
	}

	tag, revision, branch, dirty := cmdutil.ResolveTag(opts.Tag, cfg, opts.Head)

	buildArgs, err := parseKeyValues(opts.BuildArgs)
	if err != nil {
		return cmdutil.FlagErrorf("invalid --build-arg: %v", err)
	}
	labels, err := parseKeyValues(opts.Labels)
	if err != nil {
		return cmdutil.FlagErrorf("invalid --label: %v", err)
	}

	client, err := opts.DockerClient(ctx)
	if err != nil {
		return err
	}

	bkEnabled, err := resolveBuildKit(ctx, opts)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{Docker: client}
	if !opts.Quiet {
		runner.Hooks.OnBuildOutput = func(line string) {
			fmt.Fprintln(ios.ErrOut, line)
		}
	}

	popts := pipeline.Options{
		Config:          cfg,
		WorkDir:         opts.WorkDir,
		Tag:             tag,
		Revision:        revision,
		Branch:          branch,
		Dirty:           dirty,
		BuildKitEnabled: bkEnabled,
		NoCache:         opts.NoCache,
		Pull:            opts.Pull,
		Target:          opts.Target,
		BuildArgs:       buildArgs,
		Labels:          labels,
	}

	ref, err := runner.ResolveRef(popts)
	if err != nil {
		return err
	}
	if err := runner.Build(ctx, popts, ref); err != nil {
		return err
	}

	return ios.PrintSuccess("Built %s", ref.String())
}

// resolveBuildKit applies the --buildkit/--no-buildkit override, falling
// back to daemon auto-detection.
func resolveBuildKit(ctx context.Context, opts *BuildOptions) (bool, error) {
	switch {
	case opts.NoBuildKit:
		return false, nil
	case opts.BuildKit:
		return true, nil
	default:
		return opts.BuildKitEnabled(ctx)
	}
}

func parseKeyValues(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%q is not KEY=VALUE", pair)
		}
		out[k] = v
	}
	return out, nil
}
