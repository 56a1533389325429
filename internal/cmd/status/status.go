// Package status provides the status command.
package status

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/spf13/cobra"

	"github.com/schmitthub/gantry/internal/cmdutil"
	"github.com/schmitthub/gantry/internal/config"
	"github.com/schmitthub/gantry/internal/iostreams"
	"github.com/schmitthub/gantry/internal/signals"
)

// StatusOptions contains the options for the status command.
type StatusOptions struct {
	IOStreams *iostreams.IOStreams
	Config    func() (*config.Config, error)
	ECSClient func(context.Context) (*ecs.Client, error)

	Format *cmdutil.FormatFlags
	Events int // --events
}

// serviceStatus is the machine-readable summary emitted by --format json.
type serviceStatus struct {
	Cluster     string             `json:"cluster"`
	Service     string             `json:"service"`
	Status      string             `json:"status"`
	Desired     int32              `json:"desired"`
	Running     int32              `json:"running"`
	Pending     int32              `json:"pending"`
	Deployments []deploymentStatus `json:"deployments"`
	Events      []serviceEvent     `json:"events,omitempty"`
}

type deploymentStatus struct {
	Status         string `json:"status"`
	RolloutState   string `json:"rolloutState"`
	TaskDefinition string `json:"taskDefinition"`
	Desired        int32  `json:"desired"`
	Running        int32  `json:"running"`
}

type serviceEvent struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// NewCmdStatus creates the status command.
func NewCmdStatus(f *cmdutil.Factory, runF func(context.Context, *StatusOptions) error) *cobra.Command {
	opts := &StatusOptions{
		IOStreams: f.IOStreams,
		Config:    f.Config,
		ECSClient: f.ECSClient,
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the rollout state of the service",
		Long: `Describes the configured service and prints its deployments: which task
definition revision each one runs, how far along the rollout is, and the
most recent service events.`,
		Example: `  # Human-readable summary
  gantry status

  # Machine-readable output
  gantry status --format json`,
		Args: cmdutil.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runF != nil {
				return runF(cmd.Context(), opts)
			}
			return statusRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Events, "events", 5, "Number of recent service events to show")
	opts.Format = cmdutil.AddFormatFlags(cmd)

	return cmd
}

func statusRun(ctx context.Context, opts *StatusOptions) error {
	ctx, cancel := signals.SetupSignalContext(ctx)
	defer cancel()

	cfg, err := opts.Config()
	if err != nil {
		return err
	}

	client, err := opts.ECSClient(ctx)
	if err != nil {
		return err
	}

	var out *ecs.DescribeServicesOutput
	err = opts.IOStreams.RunWithProgress("Fetching service status", func() error {
		out, err = client.DescribeServices(ctx, &ecs.DescribeServicesInput{
			Cluster:  aws.String(cfg.Service.Cluster),
			Services: []string{cfg.Service.Service},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("describing service %s: %w", cfg.Service.Service, err)
	}
	if len(out.Services) == 0 {
		if len(out.Failures) > 0 {
			return fmt.Errorf("service %s: %s", cfg.Service.Service, aws.ToString(out.Failures[0].Reason))
		}
		return fmt.Errorf("service %s not found in cluster %s", cfg.Service.Service, cfg.Service.Cluster)
	}

	summary := summarize(cfg, out.Services[0], opts.Events)

	if opts.Format.IsJSON() {
		return cmdutil.OutputJSON(opts.IOStreams, summary)
	}
	if opts.Format.IsTemplate() || opts.Format.IsTableTemplate() {
		return cmdutil.ExecuteTemplate(opts.IOStreams.Out, opts.Format.Template(), []any{summary})
	}

	printSummary(opts.IOStreams, summary)
	return nil
}

func summarize(cfg *config.Config, svc ecstypes.Service, maxEvents int) serviceStatus {
	summary := serviceStatus{
		Cluster: cfg.Service.Cluster,
		Service: cfg.Service.Service,
		Status:  aws.ToString(svc.Status),
		Desired: svc.DesiredCount,
		Running: svc.RunningCount,
		Pending: svc.PendingCount,
	}

	for _, d := range svc.Deployments {
		summary.Deployments = append(summary.Deployments, deploymentStatus{
			Status:         aws.ToString(d.Status),
			RolloutState:   string(d.RolloutState),
			TaskDefinition: aws.ToString(d.TaskDefinition),
			Desired:        d.DesiredCount,
			Running:        d.RunningCount,
		})
	}

	events := make([]serviceEvent, 0, len(svc.Events))
	for _, e := range svc.Events {
		events = append(events, serviceEvent{
			At:      aws.ToTime(e.CreatedAt),
			Message: aws.ToString(e.Message),
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].At.After(events[j].At) })
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}
	summary.Events = events

	return summary
}

func printSummary(ios *iostreams.IOStreams, s serviceStatus) {
	style, icon := iostreams.StatusIndicator(s.Status)
	fmt.Fprintf(ios.Out, "%s %s/%s  %s  %d/%d running (%d pending)\n",
		style.Render(icon), s.Cluster, s.Service, s.Status, s.Running, s.Desired, s.Pending)

	for _, d := range s.Deployments {
		fmt.Fprintf(ios.Out, "  %-8s %-12s %d/%d  %s\n",
			d.Status, d.RolloutState, d.Running, d.Desired, d.TaskDefinition)
	}

	if len(s.Events) > 0 {
		fmt.Fprintln(ios.Out)
		cs := ios.ColorScheme()
		for _, e := range s.Events {
			fmt.Fprintf(ios.Out, "  %s  %s\n", cs.Muted(e.At.Format("2006-01-02 15:04:05")), e.Message)
		}
	}
}
