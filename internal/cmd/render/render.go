// Package render provides the render command.
package render

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/git"
	"github.com/schmitthub/gantry/internal/imageref"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/logger"
	"github.com/schmitthub/gantry/internal/pipeline"
	"github.com/schmitthub/gantry/internal/signals"
)

// RenderOptions contains the options for the render command.
type RenderOptions struct {
	IOStreams    *iostreams.IOStreams
	ConfigLoader func() *config.Loader
	Config       func() (*config.Config, error)
	ResetConfig  func()
	Head         func() (*git.HeadInfo, error)
	WorkDir      string

	Tag    string // --tag
	Image  string // --image
	Output string // -o, --output
	Watch  bool   // --watch
}

// NewCmdRender creates the render command.
func NewCmdRender(f *cmdutil.Factory, runF func(context.Context, *RenderOptions) error) *cobra.Command {
	opts := &RenderOptions{
		IOStreams:    f.IOStreams,
		ConfigLoader: f.ConfigLoader,
		Config:       f.Config,
		ResetConfig:  f.ResetConfig,
		Head:         f.Head,
	}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the task definition with the resolved image",
		Long: `Loads the task definition template, substitutes the resolved image
reference into the configured container, and prints the result.

Rendering is pure: only the target container's image field changes, every
other field passes through untouched. The output is deterministic, so it
diffs cleanly between runs.`,
		Example: `  # Render to stdout
  gantry render --tag 42

  # Write the rendered document next to the template
  gantry render --tag 42 -o taskdef.rendered.json

  # Re-render whenever gantry.yaml or the template changes
  gantry render --watch -o taskdef.rendered.json`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.WorkDir = f.WorkDir
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return renderRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "Tag to render into the task definition")
	cmd.Flags().StringVar(&opts.Image, "image", "", "Full image reference to render, bypassing tag resolution")
	cmd.MarkFlagsMutuallyExclusive("tag", "image")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the rendered document to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-render when the config or template changes (requires --output)")

	return cmd
}

func renderRun(ctx context.Context, opts *RenderOptions) error {
	ctx, cancel := signals.SetupSignalContext(ctx)
	defer cancel()

	if opts.Watch && opts.Output == "" {
		return cmdutil.FlagErrorf("--watch requires --output")
	}

	if err := renderOnce(opts); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	opts.IOStreams.PrintInfo("Watching for changes; press Ctrl+C to stop")
	return opts.ConfigLoader().Watch(ctx, cfg, func(path string) {
		opts.ResetConfig()
		if err := renderOnce(opts); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("re-render failed")
			opts.IOStreams.PrintFailure("%v", err)
			return
		}
		opts.IOStreams.PrintSuccess("Re-rendered after change to %s", path)
	})
}

func renderOnce(opts *RenderOptions) error {
	cfg, err := opts.Config()
	if err != nil {
		return err
	}
	if err := config.NewValidator(opts.WorkDir).Validate(cfg); err != nil {
		return err
	}

	runner := &pipeline.Runner{}
	popts := pipeline.Options{
		Config:       cfg,
		WorkDir:      opts.WorkDir,
		TemplatePath: opts.ConfigLoader().TemplatePath(cfg),
	}

	var ref imageref.Ref
	if opts.Image != "" {
		ref, err = imageref.Parse(opts.Image)
		if err != nil {
			return cmdutil.FlagErrorf("invalid --image: %v", err)
		}
	} else {
		popts.Tag, _, _, _ = cmdutil.ResolveTag(opts.Tag, cfg, opts.Head)
		ref, err = runner.ResolveRef(popts)
		if err != nil {
			return err
		}
	}
	doc, err := runner.Render(popts, ref)
	if err != nil {
		return err
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}

	if opts.Output == "" {
		_, err = opts.IOStreams.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", opts.Output, err)
	}
	return nil
}
