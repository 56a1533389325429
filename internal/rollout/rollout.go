// Package rollout submits task definition revisions to ECS and waits for
// the service to converge on them.
//
// A rollout moves through a small state machine: submitted → provisioning →
// stabilizing → succeeded, or one of two failures: rejected (the API
// refused the submission) and timeout (the service never converged within
// the bound). There is no rollback operation: a failed rollout leaves the
// previous revision serving traffic.
package rollout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/smithy-go"

	"github.com/schmitthub/gantry/internal/logger"
)

// State is the observable phase of a rollout.
type State string

const (
	// StateSubmitted: the revision is registered and the service update
	// accepted, but no replacement task has been observed yet.
	StateSubmitted State = "submitted"

	// StateProvisioning: replacement tasks are being placed and started.
	StateProvisioning State = "provisioning"

	// StateStabilizing: replacement tasks are running; health checks and
	// old-deployment draining are still in flight.
	StateStabilizing State = "stabilizing"

	// StateSucceeded: the primary deployment completed, running count
	// matches desired count, and old deployments drained.
	StateSucceeded State = "succeeded"

	// StateFailedRejected: the orchestrator refused the submission.
	StateFailedRejected State = "failed(rejected)"

	// StateFailedTimeout: the stability bound elapsed before convergence.
	StateFailedTimeout State = "failed(timeout)"
)

// Terminal reports whether the state ends a rollout.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailedRejected, StateFailedTimeout:
		return true
	}
	return false
}

// SubmissionError wraps an orchestrator API rejection: malformed revision,
// missing permission, unknown cluster or service.
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission error: %s: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// FormatUserError renders the error for terminal display, surfacing the
// API error code when the SDK provides one.
func (e *SubmissionError) FormatUserError() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("Submission rejected (%s): %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Sprintf("Submission failed: %s: %v", e.Op, e.Err)
}

// TimeoutError reports that a rollout did not converge within its bound.
// The submitted revision remains in place; the service keeps converging or
// serving the previous revision.
type TimeoutError struct {
	Timeout   time.Duration
	LastState State
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stability timeout: service did not converge within %s (last state: %s)", e.Timeout, e.LastState)
}

// FormatUserError renders the error for terminal display.
func (e *TimeoutError) FormatUserError() string {
	return fmt.Sprintf("Stability timeout after %s: the rollout is still %s on the orchestrator; the previous revision keeps serving traffic", e.Timeout, e.LastState)
}

// ECSAPI is the slice of the ECS client the orchestrator uses. The concrete
// *ecs.Client satisfies it; ecstest provides a function-field fake.
type ECSAPI interface {
	RegisterTaskDefinition(ctx context.Context, params *ecs.RegisterTaskDefinitionInput, optFns ...func(*ecs.Options)) (*ecs.RegisterTaskDefinitionOutput, error)
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
	DescribeServices(ctx context.Context, params *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
}

// Orchestrator drives rollouts against ECS.
type Orchestrator struct {
	ECS ECSAPI

	// OnTransition receives state changes while waiting. Optional.
	OnTransition func(state State)

	// OnServiceEvent receives deduplicated service events in
	// chronological order while waiting. Optional.
	OnServiceEvent func(at time.Time, message string)

	// Backoff controls the stability polling cadence. Zero values take
	// defaults.
	Backoff Backoff

	// Now and Sleep are injectable for tests. New wires the real clock.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Orchestrator on top of an ECS client.
func New(api ECSAPI) *Orchestrator {
	return &Orchestrator{
		ECS:   api,
		Now:   time.Now,
		Sleep: sleepCtx,
	}
}

// RegisterRevision registers a new immutable revision of the task
// definition family and returns its ARN.
func (o *Orchestrator) RegisterRevision(ctx context.Context, input *ecs.RegisterTaskDefinitionInput) (string, error) {
	out, err := o.ECS.RegisterTaskDefinition(ctx, input)
	if err != nil {
		return "", &SubmissionError{Op: "register task definition", Err: err}
	}
	if out.TaskDefinition == nil || out.TaskDefinition.TaskDefinitionArn == nil {
		return "", &SubmissionError{Op: "register task definition", Err: errors.New("response carried no task definition ARN")}
	}
	arn := *out.TaskDefinition.TaskDefinitionArn
	logger.Info().Str("revision", arn).Msg("task definition revision registered")
	return arn, nil
}

// UpdateService points the service at a revision, starting the rollout.
func (o *Orchestrator) UpdateService(ctx context.Context, cluster, service, revisionARN string) error {
	_, err := o.ECS.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:        aws.String(cluster),
		Service:        aws.String(service),
		TaskDefinition: aws.String(revisionARN),
	})
	if err != nil {
		return &SubmissionError{Op: "update service", Err: err}
	}
	logger.Info().
		Str("cluster", cluster).
		Str("service", service).
		Str("revision", revisionARN).
		Msg("service update submitted")
	return nil
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
