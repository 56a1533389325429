// Package check provides the config check command.
package check

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/taskdef"
)

// CheckOptions contains the options for the config check command.
type CheckOptions struct {
	IOStreams    *iostreams.IOStreams
	ConfigLoader func() *config.Loader
	Config       func() (*config.Config, error)
	WorkDir      string
}

// NewCmdCheck creates the config check command.
func NewCmdCheck(f *cmdutil.Factory, runF func(context.Context, *CheckOptions) error) *cobra.Command {
	opts := &CheckOptions{
		IOStreams:    f.IOStreams,
		ConfigLoader: f.ConfigLoader,
		Config:       f.Config,
	}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate gantry.yaml and the task definition template",
		Long: `Loads gantry.yaml and the task definition template and reports every
problem found: missing required fields, a container name that does not
appear in the template, bad port or memory settings.`,
		Example: `  gantry config check`,
		Args:    cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return checkRun(cmd.Context(), opts)
		},
	}

	return cmd
}

func checkRun(_ context.Context, opts *CheckOptions) error {
	ios := opts.IOStreams

	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	validator := config.NewValidator(opts.WorkDir)
	if err := validator.Validate(cfg); err != nil {
		ios.PrintFailure("Configuration is invalid")
		return err
	}
	for _, warning := range validator.Warnings() {
		ios.PrintWarning("%s", warning)
	}

	templatePath := opts.ConfigLoader().TemplatePath(cfg)
	doc, err := taskdef.Load(templatePath)
	if err != nil {
		ios.PrintFailure("Template %s is invalid", templatePath)
		return err
	}
	if err := doc.Validate(); err != nil {
		ios.PrintFailure("Template %s is invalid", templatePath)
		return err
	}

	// A dry-run render catches container name mismatches before deploy does.
	if _, err := doc.Render(cfg.Task.Container, "placeholder:check"); err != nil {
		ios.PrintFailure("Template %s is invalid", templatePath)
		return err
	}

	return ios.PrintSuccess("Configuration and template are valid")
}
