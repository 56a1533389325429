package rollout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/schmitthub/gantry/internal/logger"
)

// Backoff controls the polling cadence of the stability wait.
type Backoff struct {
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
}

// Polling defaults. The first describe lands quickly to catch fast
// rollouts; the cap keeps slow ones from hammering the API.
const (
	DefaultInitialDelay = 2 * time.Second
	DefaultFactor       = 1.5
	DefaultMaxDelay     = 15 * time.Second
)

func (b Backoff) withDefaults() Backoff {
	if b.InitialDelay <= 0 {
		b.InitialDelay = DefaultInitialDelay
	}
	if b.Factor < 1 {
		b.Factor = DefaultFactor
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = DefaultMaxDelay
	}
	return b
}

// Wait polls the service until it converges on revisionARN or timeout
// elapses. It returns StateSucceeded on convergence, or an error:
// TimeoutError when the bound elapses, SubmissionError when describing
// fails or the deployment is failed by the orchestrator, and the context
// error on cancellation. Cancellation only abandons the wait; the
// submitted revision stays in place either way.
func (o *Orchestrator) Wait(ctx context.Context, cluster, service, revisionARN string, timeout time.Duration) (State, error) {
	backoff := o.Backoff.withDefaults()
	deadline := o.Now().Add(timeout)
	seenEvents := make(map[string]bool)
	waitStart := o.Now()
	state := StateSubmitted
	if o.OnTransition != nil {
		o.OnTransition(state)
	}

	for delay := backoff.InitialDelay; ; delay = minDuration(time.Duration(float64(delay)*backoff.Factor), backoff.MaxDelay) {
		out, err := o.ECS.DescribeServices(ctx, &ecs.DescribeServicesInput{
			Cluster:  aws.String(cluster),
			Services: []string{service},
		})
		if err != nil {
			return state, &SubmissionError{Op: "describe service", Err: err}
		}

		svc, err := findService(out, service)
		if err != nil {
			return state, err
		}

		o.emitEvents(svc.Events, waitStart, seenEvents)

		next, err := classify(svc, revisionARN)
		if err != nil {
			return StateFailedRejected, err
		}
		o.transition(&state, next)

		if next == StateSucceeded {
			logger.Info().
				Str("cluster", cluster).
				Str("service", service).
				Msg("rollout converged")
			return StateSucceeded, nil
		}

		if !o.Now().Add(delay).Before(deadline) {
			return StateFailedTimeout, &TimeoutError{Timeout: timeout, LastState: state}
		}
		if err := o.Sleep(ctx, delay); err != nil {
			return state, err
		}
	}
}

// forwardPhases is the happy path of the state machine in order. Failure
// states are off it.
var forwardPhases = []State{StateSubmitted, StateProvisioning, StateStabilizing, StateSucceeded}

func phaseIndex(s State) int {
	for i, p := range forwardPhases {
		if p == s {
			return i
		}
	}
	return -1
}

// transition advances the observed state and notifies OnTransition.
// Polling samples the service rather than watching it, so a snapshot can
// land after the service already moved through a phase (a small service
// may show every replacement task running on the first describe). Skipped
// forward phases are emitted in order so observers see the full path.
func (o *Orchestrator) transition(current *State, next State) {
	if *current == next {
		return
	}
	if from, to := phaseIndex(*current), phaseIndex(next); from >= 0 && to > from+1 {
		for _, mid := range forwardPhases[from+1 : to] {
			o.announce(mid)
		}
	}
	*current = next
	o.announce(next)
}

func (o *Orchestrator) announce(s State) {
	logger.Debug().Str("state", string(s)).Msg("rollout state")
	if o.OnTransition != nil {
		o.OnTransition(s)
	}
}

// emitEvents forwards service events that arrived since the wait began,
// oldest first, skipping ones already emitted. ECS returns events newest
// first and repeats the full tail on every describe.
func (o *Orchestrator) emitEvents(events []ecstypes.ServiceEvent, since time.Time, seen map[string]bool) {
	if o.OnServiceEvent == nil {
		return
	}
	var fresh []ecstypes.ServiceEvent
	for _, ev := range events {
		if ev.Id == nil || ev.CreatedAt == nil || ev.Message == nil {
			continue
		}
		if seen[*ev.Id] || ev.CreatedAt.Before(since) {
			continue
		}
		seen[*ev.Id] = true
		fresh = append(fresh, ev)
	}
	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].CreatedAt.Before(*fresh[j].CreatedAt)
	})
	for _, ev := range fresh {
		o.OnServiceEvent(*ev.CreatedAt, *ev.Message)
	}
}

func findService(out *ecs.DescribeServicesOutput, name string) (*ecstypes.Service, error) {
	for i := range out.Services {
		if out.Services[i].ServiceName != nil && *out.Services[i].ServiceName == name {
			return &out.Services[i], nil
		}
	}
	for _, failure := range out.Failures {
		reason := ""
		if failure.Reason != nil {
			reason = *failure.Reason
		}
		return nil, &SubmissionError{Op: "describe service", Err: fmt.Errorf("service %s: %s", name, reason)}
	}
	return nil, &SubmissionError{Op: "describe service", Err: fmt.Errorf("service %s not found", name)}
}

// classify maps a service snapshot onto the rollout state machine.
//
// Succeeded requires all three: the primary deployment targeting our
// revision reports COMPLETED, its running count matches the desired count,
// and no old deployment remains. A service is never Succeeded while a
// replacement instance is unhealthy or an old deployment still drains.
func classify(svc *ecstypes.Service, revisionARN string) (State, error) {
	var primary *ecstypes.Deployment
	for i := range svc.Deployments {
		d := &svc.Deployments[i]
		if d.Status != nil && *d.Status == "PRIMARY" {
			primary = d
			break
		}
	}
	if primary == nil {
		return StateSubmitted, nil
	}

	// A primary deployment for a different revision means our update has
	// not landed yet (or was superseded); keep observing.
	if primary.TaskDefinition == nil || !sameRevision(*primary.TaskDefinition, revisionARN) {
		return StateSubmitted, nil
	}

	if primary.RolloutState == ecstypes.DeploymentRolloutStateFailed {
		reason := "deployment failed"
		if primary.RolloutStateReason != nil {
			reason = *primary.RolloutStateReason
		}
		return StateFailedRejected, &SubmissionError{Op: "rollout", Err: errors.New(reason)}
	}

	desired := svc.DesiredCount
	if primary.DesiredCount > 0 {
		desired = primary.DesiredCount
	}

	if primary.RunningCount < desired {
		return StateProvisioning, nil
	}

	completed := primary.RolloutState == ecstypes.DeploymentRolloutStateCompleted
	drained := len(svc.Deployments) == 1
	if completed && drained && primary.RunningCount == desired {
		return StateSucceeded, nil
	}
	return StateStabilizing, nil
}

// sameRevision compares task definition identifiers, tolerating one side
// being a bare family:revision and the other a full ARN.
func sameRevision(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasSuffix(a, "/"+b) || strings.HasSuffix(b, "/"+a)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
