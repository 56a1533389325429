package cmdutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"

	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/git"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/prompter"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir string
	Debug   bool

	// Version info (set at build time via ldflags)
	Version string
	Commit  string

	// IO streams for input/output (for testability)
	IOStreams *iostreams.IOStreams

	// Prompter asks for values interactively; non-interactive
	// sessions resolve prompts to their defaults.
	Prompter func() *prompter.Prompter

	// Dependency providers (closures wired by factory constructor)
	ConfigLoader func() *config.Loader
	Config       func() (*config.Config, error)
	ResetConfig  func()

	DockerClient      func(context.Context) (*docker.Client, error)
	CloseDockerClient func()
	BuildKitEnabled   func(context.Context) (bool, error)

	// AWS clients share one lazily-loaded aws.Config. Credentials and
	// region come from the process environment and are never written
	// anywhere by the factory.
	AWSConfig func(context.Context) (aws.Config, error)
	ECSClient func(context.Context) (*ecs.Client, error)
	ECRClient func(context.Context) (*ecr.Client, error)

	// Head reports the git HEAD of WorkDir, used to derive default
	// image tags.
	Head func() (*git.HeadInfo, error)
}
