// Package initcmd provides the init command.
package initcmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/internal/prompter"
)

// InitOptions contains the options for the init command.
type InitOptions struct {
	IOStreams *iostreams.IOStreams
	Prompter  func() *prompter.Prompter
	WorkDir   string

	Cluster    string
	Service    string
	Region     string
	Repository string
	Container  string
	Port       int
	Yes        bool // --yes
}

// NewCmdInit creates the init command.
func NewCmdInit(f *cmdutil.Factory, runF func(context.Context, *InitOptions) error) *cobra.Command {
	opts := &InitOptions{
		IOStreams: f.IOStreams,
		Prompter:  f.Prompter,
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold gantry.yaml and a task definition template",
		Long: `Creates a starter gantry.yaml and taskdef.json in the current directory.

Values not supplied via flags are prompted for when the session is
interactive. Existing files are never overwritten, so init is safe to
re-run after a partial setup.`,
		Example: `  # Scaffold with the service name doubling as the container name
  gantry init --cluster production --service web --region us-east-1 \
      --repository 123456789012.dkr.ecr.us-east-1.amazonaws.com/web`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return initRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Cluster, "cluster", "default", "Cluster the service runs in")
	cmd.Flags().StringVar(&opts.Service, "service", "", "Service name (prompted if omitted)")
	cmd.Flags().StringVar(&opts.Region, "region", "us-east-1", "Cluster region")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "Image repository to publish to (prompted if omitted)")
	cmd.Flags().StringVar(&opts.Container, "container", "", "Container name in the task definition (defaults to the service name)")
	cmd.Flags().IntVar(&opts.Port, "port", 3000, "Container port exposed by the service")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip prompts and accept flag values as-is")

	return cmd
}

func initRun(_ context.Context, opts *InitOptions) error {
	ios := opts.IOStreams

	if err := resolveParams(opts); err != nil {
		return err
	}

	created, err := config.Scaffold(opts.WorkDir, config.ScaffoldParams{
		Cluster:    opts.Cluster,
		Service:    opts.Service,
		Region:     opts.Region,
		Repository: opts.Repository,
		Container:  opts.Container,
		Port:       opts.Port,
	})
	if err != nil {
		return err
	}

	if len(created) == 0 {
		ios.PrintInfo("Nothing to do: gantry.yaml and taskdef.json already exist")
		return nil
	}

	for _, path := range created {
		logger.Debug().Str("path", path).Msg("scaffolded file")
		ios.PrintSuccess("Created %s", filepath.Base(path))
	}
	ios.PrintInfo("Edit gantry.yaml, then run `gantry deploy`")
	return nil
}

// resolveParams fills in values not supplied via flags, prompting
// when the session is interactive.
func resolveParams(opts *InitOptions) error {
	if opts.Service != "" && opts.Repository != "" {
		return nil
	}
	if opts.Yes {
		if opts.Service == "" {
			return fmt.Errorf("--service is required with --yes")
		}
		return fmt.Errorf("--repository is required with --yes")
	}

	p := opts.Prompter()

	if opts.Service == "" {
		service, err := p.String(prompter.StringConfig{
			Message:  "Service name",
			Required: true,
		})
		if err != nil {
			return err
		}
		opts.Service = service
	}

	if opts.Repository == "" {
		repo, err := p.String(prompter.StringConfig{
			Message:  "Image repository",
			Required: true,
		})
		if err != nil {
			return err
		}
		opts.Repository = repo
	}

	return nil
}
