package buildkit

import (
	"context"
	"fmt"

	bkclient "github.com/moby/buildkit/client"

	"github.com/schmitthub/gantry/internal/docker"
)

// NewImageBuilder returns a closure that builds images using BuildKit's
// Solve API. The closure is intended to be set on Client.BuildKitBuilder.
//
// Each invocation creates a fresh BuildKit client connection via DialHijack,
// runs Solve, and closes the connection.
func NewImageBuilder(dialer DockerDialer) docker.BuildKitBuildFn {
	return func(ctx context.Context, opts docker.BuildKitOpts) error {
		bkClient, err := NewBuildKitClient(ctx, dialer)
		if err != nil {
			return fmt.Errorf("buildkit: connect: %w", err)
		}
		defer bkClient.Close()

		solveOpt, err := toSolveOpt(opts)
		if err != nil {
			return err
		}

		statusCh := make(chan *bkclient.SolveStatus)
		go drainProgress(statusCh, opts.Quiet)

		_, err = bkClient.Solve(ctx, nil, solveOpt, statusCh)
		if err != nil {
			return fmt.Errorf("buildkit: solve: %w", err)
		}
		return nil
	}
}
