// Package push provides the push command.
package push

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/git"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/pipeline"
	"github.com/schmitthub/gantry/internal/registry"
	"github.com/schmitthub/gantry/internal/signals"
)

// PushOptions contains the options for the push command.
type PushOptions struct {
	IOStreams    *iostreams.IOStreams
	Config       func() (*config.Config, error)
	DockerClient func(context.Context) (*docker.Client, error)
	ECRClient    func(context.Context) (*ecr.Client, error)
	Head         func() (*git.HeadInfo, error)
	WorkDir      string

	Tag      string // --tag
	Quiet    bool   // -q, --quiet
	NoLatest bool   // --no-latest
}

// NewCmdPush creates the push command.
func NewCmdPush(f *cmdutil.Factory, runF func(context.Context, *PushOptions) error) *cobra.Command {
	opts := &PushOptions{
		IOStreams:    f.IOStreams,
		Config:       f.Config,
		DockerClient: f.DockerClient,
		ECRClient:    f.ECRClient,
		Head:         f.Head,
	}

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Publish a built image to the registry",
		Long: `Pushes a locally built service image to the configured repository.

Registry credentials are resolved per host: ECR repositories exchange an
authorization token through the registry API, other registries read
GANTRY_REGISTRY_USER and GANTRY_REGISTRY_TOKEN from the environment, and
anything else is pushed anonymously. When image.push_latest is enabled
(the default) the image is also pushed under the latest tag.`,
		Example: `  # Push the image built from git HEAD
  gantry push

  # Push a specific tag
  gantry push --tag 42`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return pushRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "Tag of the image to push")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress push progress")
	cmd.Flags().BoolVar(&opts.NoLatest, "no-latest", false, "Skip the latest alias even when image.push_latest is enabled")

	return cmd
}

func pushRun(ctx context.Context, opts *PushOptions) error {
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

	tag, revision, branch, _ := cmdutil.ResolveTag(opts.Tag, cfg, opts.Head)

	client, err := opts.DockerClient(ctx)
	if err != nil {
		return err
	}
	auth := registry.NewAuthenticator(func(ctx context.Context) (registry.ECRTokenAPI, error) {
		return opts.ECRClient(ctx)
	})

	runner := &pipeline.Runner{Docker: client, Auth: auth}
	if !opts.Quiet {
		runner.Hooks.OnPushProgress = func(line string) {
			fmt.Fprintln(ios.ErrOut, line)
		}
	}

	popts := pipeline.Options{
		Config:   cfg,
		WorkDir:  opts.WorkDir,
		Tag:      tag,
		Revision: revision,
		Branch:   branch,
	}
	if opts.NoLatest {
		never := false
		popts.PushLatest = &never
	}

	ref, err := runner.ResolveRef(popts)
	if err != nil {
		return err
	}
	dgst, latestRef, err := runner.Publish(ctx, popts, ref)
	if err != nil {
		return err
	}

	if err := ios.PrintSuccess("Pushed %s (%s)", ref.String(), dgst); err != nil {
		return err
	}
	if latestRef.Tag != "" {
		return ios.PrintSuccess("Pushed %s", latestRef.String())
	}
	return nil
}
