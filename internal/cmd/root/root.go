// Package root assembles the gantry command tree.
package root

import (
	"github.com/spf13/cobra"

	buildcmd "github.com/schmitthub/gantry/internal/cmd/build"
	configcmd "github.com/schmitthub/gantry/internal/cmd/config"
	deploycmd "github.com/schmitthub/gantry/internal/cmd/deploy"
	docscmd "github.com/schmitthub/gantry/internal/cmd/docs"
	initcmd "github.com/schmitthub/gantry/internal/cmd/initcmd"
	pushcmd "github.com/schmitthub/gantry/internal/cmd/push"
	rendercmd "github.com/schmitthub/gantry/internal/cmd/render"
	statuscmd "github.com/schmitthub/gantry/internal/cmd/status"
	versioncmd "github.com/schmitthub/gantry/internal/cmd/version"
	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/logger"
)

// NewCmdRoot creates the root command for the gantry CLI.
func NewCmdRoot(f *cmdutil.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gantry",
		Short: "Build, publish and deploy container services",
		Long: `Gantry drives a service from source to a running rollout: it builds the
image, pushes it to the registry, renders the task definition and submits
a new revision, then waits for the deployment to stabilize.

Quick start:
  gantry init            # Scaffold gantry.yaml and taskdef.json
  gantry deploy          # Build, push and roll out the service
  gantry status          # Show the current rollout state`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations: map[string]string{
			"versionInfo": versioncmd.Format(f.Version, f.Commit),
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initializeLogger(f)

			logger.Debug().
				Str("version", f.Version).
				Bool("debug", f.Debug).
				Msg("gantry starting")

			return nil
		},
		Version: f.Version,
	}

	cmd.PersistentFlags().BoolVarP(&f.Debug, "debug", "D", false, "Enable debug logging")
	cmd.SetVersionTemplate(versioncmd.Format(f.Version, f.Commit))

	cmd.AddCommand(initcmd.NewCmdInit(f, nil))
	cmd.AddCommand(buildcmd.NewCmdBuild(f, nil))
	cmd.AddCommand(pushcmd.NewCmdPush(f, nil))
	cmd.AddCommand(rendercmd.NewCmdRender(f, nil))
	cmd.AddCommand(deploycmd.NewCmdDeploy(f, nil))
	cmd.AddCommand(statuscmd.NewCmdStatus(f, nil))
	cmd.AddCommand(configcmd.NewCmdConfig(f))
	cmd.AddCommand(docscmd.NewCmdDocs(f))
	cmd.AddCommand(versioncmd.NewCmdVersion(f))

	return cmd
}

// initializeLogger sets up logging, with file output when the state
// directory is usable. Falls back to console-only logging on any error.
func initializeLogger(f *cmdutil.Factory) {
	logsDir, err := config.LogsDir()
	if err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to resolve logs directory")
		return
	}

	var logCfg *logger.LoggingConfig
	if cfg, err := f.Config(); err == nil {
		logCfg = &logger.LoggingConfig{
			FileEnabled: &cfg.Logging.FileEnabled,
			MaxSizeMB:   cfg.Logging.MaxSizeMB,
			MaxAgeDays:  cfg.Logging.MaxAgeDays,
			MaxBackups:  cfg.Logging.MaxBackups,
		}
	}

	if err := logger.InitWithFile(f.Debug, logsDir, logCfg); err != nil {
		logger.Init(f.Debug)
		logger.Warn().Err(err).Msg("file logging unavailable: failed to initialize file writer")
	}
}
