// Package factory wires the real implementations behind cmdutil.Factory.
package factory

import (
	"context"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/schmitthub/gantry/internal/awsconfig"
	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/docker/buildkit"
	"github.com/schmitthub/gantry/internal/git"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/prompter"
)

// New creates a fully-wired Factory with lazy-initialized dependency
// closures. Called exactly once at the CLI entry point.
// Tests should NOT import this package; construct &cmdutil.Factory{}
// directly instead.
func New(version, commit string) *cmdutil.Factory {
	ios := iostreams.NewIOStreams()

	if ios.IsOutputTTY() {
		ios.DetectTerminalTheme()
		if os.Getenv("NO_COLOR") != "" {
			ios.SetColorEnabled(false)
		}
	} else {
		ios.SetColorEnabled(false)
	}

	if os.Getenv("CI") != "" {
		ios.SetNeverPrompt(true)
	}

	wd, _ := os.Getwd()

	f := &cmdutil.Factory{
		WorkDir:   wd,
		Version:   version,
		Commit:    commit,
		IOStreams: ios,
	}

	f.Prompter = func() *prompter.Prompter {
		return prompter.New(f.IOStreams)
	}

	// Docker client
	var (
		clientOnce sync.Once
		client     *docker.Client
		clientErr  error
	)
	f.DockerClient = func(ctx context.Context) (*docker.Client, error) {
		clientOnce.Do(func() {
			client, clientErr = docker.NewClient(ctx)
			if clientErr == nil {
				client.BuildKitBuilder = buildkit.NewImageBuilder(client.API)
			}
		})
		return client, clientErr
	}
	f.CloseDockerClient = func() {
		if client != nil {
			client.Close()
		}
	}
	f.BuildKitEnabled = func(ctx context.Context) (bool, error) {
		c, err := f.DockerClient(ctx)
		if err != nil {
			return false, err
		}
		return docker.BuildKitEnabled(ctx, c.API)
	}

	// Config
	var (
		loaderOnce   sync.Once
		configLoader *config.Loader
		configData   *config.Config
		configErr    error
	)
	f.ConfigLoader = func() *config.Loader {
		loaderOnce.Do(func() {
			configLoader = config.NewLoader(f.WorkDir)
		})
		return configLoader
	}
	f.Config = func() (*config.Config, error) {
		if configData != nil || configErr != nil {
			return configData, configErr
		}
		configData, configErr = f.ConfigLoader().Load()
		return configData, configErr
	}
	f.ResetConfig = func() {
		configData = nil
		configErr = nil
	}

	// AWS clients share one lazily-loaded aws.Config. The region comes
	// from the service config when set, else the environment.
	var (
		awsOnce sync.Once
		awsCfg  aws.Config
		awsErr  error
	)
	f.AWSConfig = func(ctx context.Context) (aws.Config, error) {
		awsOnce.Do(func() {
			var region string
			if cfg, err := f.Config(); err == nil {
				region = cfg.Service.Region
			}
			awsCfg, awsErr = awsconfig.Load(ctx, region)
		})
		return awsCfg, awsErr
	}
	f.ECSClient = func(ctx context.Context) (*ecs.Client, error) {
		cfg, err := f.AWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return ecs.NewFromConfig(cfg), nil
	}
	f.ECRClient = func(ctx context.Context) (*ecr.Client, error) {
		cfg, err := f.AWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		return ecr.NewFromConfig(cfg), nil
	}

	// Git HEAD, used for default image tags
	var (
		headOnce sync.Once
		head     *git.HeadInfo
		headErr  error
	)
	f.Head = func() (*git.HeadInfo, error) {
		headOnce.Do(func() {
			head, headErr = git.Head(f.WorkDir)
		})
		return head, headErr
	}

	return f
}
