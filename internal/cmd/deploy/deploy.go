// Package deploy provides the deploy command.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/git"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/pipeline"
	"github.com/schmitthub/gantry/internal/registry"
	"github.com/schmitthub/gantry/internal/rollout"
	"github.com/schmitthub/gantry/internal/signals"
	"github.com/schmitthub/gantry/internal/tui"
)

// stageTitles maps pipeline stages to the labels shown in progress output.
var stageTitles = map[pipeline.Stage]string{
	pipeline.StageBuild:   "Build",
	pipeline.StagePublish: "Publish",
	pipeline.StageRender:  "Render",
	pipeline.StageSubmit:  "Submit",
	pipeline.StageWait:    "Stabilize",
}

var stageOrder = []pipeline.Stage{
	pipeline.StageBuild,
	pipeline.StagePublish,
	pipeline.StageRender,
	pipeline.StageSubmit,
	pipeline.StageWait,
}

// DeployOptions contains the options for the deploy command.
type DeployOptions struct {
	IOStreams       *iostreams.IOStreams
	ConfigLoader    func() *config.Loader
	Config          func() (*config.Config, error)
	DockerClient    func(context.Context) (*docker.Client, error)
	BuildKitEnabled func(context.Context) (bool, error)
	ECSClient       func(context.Context) (*ecs.Client, error)
	ECRClient       func(context.Context) (*ecr.Client, error)
	Head            func() (*git.HeadInfo, error)
	WorkDir         string

	Tag       string        // -t, --tag
	SkipBuild bool          // --skip-build
	NoWait    bool          // --no-wait
	Timeout   time.Duration // --timeout
	Watch     bool          // --watch
	Quiet     bool          // -q, --quiet
}

// NewCmdDeploy creates the deploy command.
func NewCmdDeploy(f *cmdutil.Factory, runF func(context.Context, *DeployOptions) error) *cobra.Command {
	opts := &DeployOptions{
		IOStreams:       f.IOStreams,
		ConfigLoader:    f.ConfigLoader,
		Config:          f.Config,
		DockerClient:    f.DockerClient,
		BuildKitEnabled: f.BuildKitEnabled,
		ECSClient:       f.ECSClient,
		ECRClient:       f.ECRClient,
		Head:            f.Head,
	}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run the full deployment pipeline",
		Long: `Builds the service image, publishes it to the registry, renders the task
definition, submits a new revision and updates the service, then waits
for the rollout to stabilize.

Stages run in order and the first failure stops the run; nothing is
submitted when an earlier stage fails. A per-service lock prevents two
deploys of the same service from racing on this host.`,
		Example: `  # Deploy the current git HEAD
  gantry deploy

  # Deploy a specific tag and give the rollout half an hour
  gantry deploy --tag 42 --timeout 30m

  # Submit the revision without waiting for stability
  gantry deploy --no-wait

  # Deploy an image that was already built and follow along in a live view
  gantry deploy --skip-build --watch`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return deployRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "Tag of the image to deploy")
	cmd.Flags().BoolVar(&opts.SkipBuild, "skip-build", false, "Skip the build stage and publish an existing local image")
	cmd.Flags().BoolVar(&opts.NoWait, "no-wait", false, "Return after submitting without waiting for rollout stability")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Rollout stability timeout (overrides deploy.timeout)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Show a live view of the rollout")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress build and push output")

	return cmd
}

func deployRun(ctx context.Context, opts *DeployOptions) error {
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

	locksDir, err := config.LocksDir()
	if err != nil {
		return err
	}
	release, err := pipeline.AcquireServiceLock(ctx, locksDir, cfg.Service.Cluster, cfg.Service.Service)
	if err != nil {
		return fmt.Errorf("another deploy of %s/%s is in progress: %w",
			cfg.Service.Cluster, cfg.Service.Service, err)
	}
	defer release()

	runner, popts, err := newRunner(ctx, opts, cfg)
	if err != nil {
		return err
	}

	if opts.Watch && ios.IsStderrTTY() {
		return deployWatch(ctx, cancel, opts, runner, popts)
	}

	attachConsoleHooks(runner, opts)

	result, err := runner.Run(ctx, popts)
	if err != nil {
		return err
	}

	if err := ios.PrintSuccess("Submitted revision %s", result.Revision); err != nil {
		return err
	}
	if popts.Wait {
		return ios.PrintSuccess("Service %s is stable (%s)", cfg.Service.Service, result.ImageRef.String())
	}
	return ios.PrintInfo("Not waiting for stability (--no-wait); check progress with `gantry status`")
}

// newRunner wires the pipeline from the lazily constructed clients.
func newRunner(ctx context.Context, opts *DeployOptions, cfg *config.Config) (*pipeline.Runner, pipeline.Options, error) {
	client, err := opts.DockerClient(ctx)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	bkEnabled, err := opts.BuildKitEnabled(ctx)
	if err != nil {
		return nil, pipeline.Options{}, err
	}
	ecsClient, err := opts.ECSClient(ctx)
	if err != nil {
		return nil, pipeline.Options{}, err
	}

	auth := registry.NewAuthenticator(func(ctx context.Context) (registry.ECRTokenAPI, error) {
		return opts.ECRClient(ctx)
	})

	tag, revision, branch, dirty := cmdutil.ResolveTag(opts.Tag, cfg, opts.Head)

	runner := &pipeline.Runner{
		Docker:       client,
		Auth:         auth,
		Orchestrator: rollout.New(ecsClient),
	}

	popts := pipeline.Options{
		Config:          cfg,
		WorkDir:         opts.WorkDir,
		TemplatePath:    opts.ConfigLoader().TemplatePath(cfg),
		Tag:             tag,
		Revision:        revision,
		Branch:          branch,
		Dirty:           dirty,
		SkipBuild:       opts.SkipBuild,
		Wait:            cfg.Deploy.ShouldWait() && !opts.NoWait,
		Timeout:         resolveTimeout(opts.Timeout, cfg),
		BuildKitEnabled: bkEnabled,
	}

	return runner, popts, nil
}

// resolveTimeout prefers the --timeout flag over deploy.timeout from
// config. Zero falls through to the pipeline default.
func resolveTimeout(flagTimeout time.Duration, cfg *config.Config) time.Duration {
	if flagTimeout > 0 {
		return flagTimeout
	}
	return cfg.Deploy.Timeout
}

// attachConsoleHooks prints plain line-oriented progress, for pipes and CI.
func attachConsoleHooks(runner *pipeline.Runner, opts *DeployOptions) {
	ios := opts.IOStreams
	cs := ios.ColorScheme()

	runner.Hooks.OnStageStart = func(stage pipeline.Stage) {
		fmt.Fprintf(ios.ErrOut, "%s %s\n", cs.Cyan("=>"), stageTitles[stage])
	}
	runner.Hooks.OnTransition = func(state rollout.State) {
		fmt.Fprintf(ios.ErrOut, "   rollout %s\n", state)
	}
	runner.Hooks.OnServiceEvent = func(at time.Time, message string) {
		fmt.Fprintf(ios.ErrOut, "   %s  %s\n", at.Format("15:04:05"), message)
	}
	if !opts.Quiet {
		runner.Hooks.OnBuildOutput = func(line string) {
			fmt.Fprintln(ios.ErrOut, line)
		}
		runner.Hooks.OnPushProgress = func(line string) {
			fmt.Fprintln(ios.ErrOut, line)
		}
	}
}

// deployWatch runs the pipeline behind a live BubbleTea view. The pipeline
// runs on its own goroutine and feeds the model through Program.Send;
// quitting the view cancels the run.
func deployWatch(ctx context.Context, cancel context.CancelFunc, opts *DeployOptions, runner *pipeline.Runner, popts pipeline.Options) error {
	cfg := popts.Config

	stages := make([]string, 0, len(stageOrder))
	for _, stage := range stageOrder {
		if stage == pipeline.StageBuild && popts.SkipBuild {
			continue
		}
		if stage == pipeline.StageWait && !popts.Wait {
			continue
		}
		stages = append(stages, stageTitles[stage])
	}

	model := tui.NewDeployModel(cfg.Service.Service, cfg.Service.Cluster, stages)
	program := tui.NewProgram(opts.IOStreams, model)

	runner.Hooks = pipeline.Hooks{
		OnStageStart: func(stage pipeline.Stage) {
			program.Send(tui.StageStartMsg{Stage: stageTitles[stage]})
		},
		OnStageDone: func(stage pipeline.Stage) {
			program.Send(tui.StageDoneMsg{Stage: stageTitles[stage]})
		},
		OnBuildOutput: func(line string) {
			program.Send(tui.LogLineMsg{Line: line})
		},
		OnPushProgress: func(line string) {
			program.Send(tui.LogLineMsg{Line: line})
		},
		OnTransition: func(state rollout.State) {
			program.Send(tui.RolloutStateMsg{State: string(state)})
		},
		OnServiceEvent: func(at time.Time, message string) {
			program.Send(tui.ServiceEventMsg{At: at, Message: message})
		},
	}

	type runOutcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		result, err := runner.Run(ctx, popts)
		done <- runOutcome{result, err}
		program.Send(tui.DeployDoneMsg{Err: err})
	}()

	final, err := program.Run()
	if err != nil {
		cancel()
		<-done
		return err
	}
	if m, ok := final.(tui.DeployModel); ok && m.Cancelled() {
		cancel()
	}

	outcome := <-done
	if outcome.err != nil {
		return outcome.err
	}
	return opts.IOStreams.PrintSuccess("Submitted revision %s", outcome.result.Revision)
}
