// Package ecstest provides a function-field fake for rollout.ECSAPI.
//
// The fake records call order so tests can assert zero-downtime ordering:
// register precedes update precedes describe. Helpers script the
// DescribeServices snapshots a converging (or stuck) service would return.
package ecstest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/schmitthub/gantry/internal/rollout"
)

// FakeECS is a test double for rollout.ECSAPI.
type FakeECS struct {
	mu    sync.Mutex
	Calls []string

	RegisterTaskDefinitionFn func(ctx context.Context, params *ecs.RegisterTaskDefinitionInput) (*ecs.RegisterTaskDefinitionOutput, error)
	UpdateServiceFn          func(ctx context.Context, params *ecs.UpdateServiceInput) (*ecs.UpdateServiceOutput, error)
	DescribeServicesFn       func(ctx context.Context, params *ecs.DescribeServicesInput) (*ecs.DescribeServicesOutput, error)
}

var _ rollout.ECSAPI = (*FakeECS)(nil)

func (f *FakeECS) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

// CallOrder returns a copy of the recorded call sequence.
func (f *FakeECS) CallOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// AssertCalled fails the test if method was never invoked.
func (f *FakeECS) AssertCalled(t *testing.T, method string) {
	t.Helper()
	for _, c := range f.CallOrder() {
		if c == method {
			return
		}
	}
	t.Errorf("expected %s to be called; calls: %v", method, f.CallOrder())
}

// AssertNotCalled fails the test if method was invoked.
func (f *FakeECS) AssertNotCalled(t *testing.T, method string) {
	t.Helper()
	for _, c := range f.CallOrder() {
		if c == method {
			t.Errorf("expected %s not to be called; calls: %v", method, f.CallOrder())
			return
		}
	}
}

func (f *FakeECS) RegisterTaskDefinition(ctx context.Context, params *ecs.RegisterTaskDefinitionInput, _ ...func(*ecs.Options)) (*ecs.RegisterTaskDefinitionOutput, error) {
	f.record("RegisterTaskDefinition")
	if f.RegisterTaskDefinitionFn == nil {
		panic("not implemented: RegisterTaskDefinition (set RegisterTaskDefinitionFn on FakeECS)")
	}
	return f.RegisterTaskDefinitionFn(ctx, params)
}

func (f *FakeECS) UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, _ ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error) {
	f.record("UpdateService")
	if f.UpdateServiceFn == nil {
		panic("not implemented: UpdateService (set UpdateServiceFn on FakeECS)")
	}
	return f.UpdateServiceFn(ctx, params)
}

func (f *FakeECS) DescribeServices(ctx context.Context, params *ecs.DescribeServicesInput, _ ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	f.record("DescribeServices")
	if f.DescribeServicesFn == nil {
		panic("not implemented: DescribeServices (set DescribeServicesFn on FakeECS)")
	}
	return f.DescribeServicesFn(ctx, params)
}

// RegisterReturning wires RegisterTaskDefinitionFn to hand back a revision
// ARN derived from the family.
func (f *FakeECS) RegisterReturning(revision int) {
	f.RegisterTaskDefinitionFn = func(_ context.Context, params *ecs.RegisterTaskDefinitionInput) (*ecs.RegisterTaskDefinitionOutput, error) {
		arn := fmt.Sprintf("arn:aws:ecs:us-east-1:123456789012:task-definition/%s:%d", aws.ToString(params.Family), revision)
		return &ecs.RegisterTaskDefinitionOutput{
			TaskDefinition: &ecstypes.TaskDefinition{
				TaskDefinitionArn: aws.String(arn),
				Family:            params.Family,
				Revision:          int32(revision),
			},
		}, nil
	}
}

// UpdateAccepting wires UpdateServiceFn to accept any update.
func (f *FakeECS) UpdateAccepting() {
	f.UpdateServiceFn = func(_ context.Context, params *ecs.UpdateServiceInput) (*ecs.UpdateServiceOutput, error) {
		return &ecs.UpdateServiceOutput{
			Service: &ecstypes.Service{
				ServiceName:    params.Service,
				TaskDefinition: params.TaskDefinition,
			},
		}, nil
	}
}

// ServiceOpt mutates a scripted service snapshot.
type ServiceOpt func(*ecstypes.Service)

// Snapshot builds one DescribeServices service entry. The primary
// deployment targets revisionARN with running of desired tasks up.
func Snapshot(service, revisionARN string, running, desired int32, rolloutState ecstypes.DeploymentRolloutState, opts ...ServiceOpt) ecstypes.Service {
	svc := ecstypes.Service{
		ServiceName:  aws.String(service),
		DesiredCount: desired,
		RunningCount: running,
		Deployments: []ecstypes.Deployment{{
			Status:         aws.String("PRIMARY"),
			TaskDefinition: aws.String(revisionARN),
			DesiredCount:   desired,
			RunningCount:   running,
			RolloutState:   rolloutState,
		}},
	}
	for _, opt := range opts {
		opt(&svc)
	}
	return svc
}

// WithDraining appends an ACTIVE deployment for the previous revision.
func WithDraining(previousARN string, running int32) ServiceOpt {
	return func(svc *ecstypes.Service) {
		svc.Deployments = append(svc.Deployments, ecstypes.Deployment{
			Status:         aws.String("ACTIVE"),
			TaskDefinition: aws.String(previousARN),
			RunningCount:   running,
		})
	}
}

// WithEvent prepends a service event (ECS returns newest first).
func WithEvent(id, message string, at time.Time) ServiceOpt {
	return func(svc *ecstypes.Service) {
		svc.Events = append([]ecstypes.ServiceEvent{{
			Id:        aws.String(id),
			Message:   aws.String(message),
			CreatedAt: aws.Time(at),
		}}, svc.Events...)
	}
}

// DescribeSequence wires DescribeServicesFn to play snapshots in order,
// repeating the last one once the script runs out.
func (f *FakeECS) DescribeSequence(snapshots ...ecstypes.Service) {
	i := 0
	f.DescribeServicesFn = func(context.Context, *ecs.DescribeServicesInput) (*ecs.DescribeServicesOutput, error) {
		svc := snapshots[min(i, len(snapshots)-1)]
		i++
		return &ecs.DescribeServicesOutput{Services: []ecstypes.Service{svc}}, nil
	}
}
