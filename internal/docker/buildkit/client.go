// Package buildkit provides BuildKit connectivity for image builds.
//
// This subpackage imports moby/buildkit and its transitive dependencies
// (gRPC, protobuf, containerd, opentelemetry). Only the build stage pays
// that cost; the rest of the pipeline uses the plain Docker SDK.
package buildkit

import (
	"context"
	"fmt"
	"net"

	bkclient "github.com/moby/buildkit/client"
)

// DockerDialer abstracts the DialHijack capability on the Docker client.
// docker.APIClient satisfies this interface.
type DockerDialer interface {
	DialHijack(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error)
}

// NewBuildKitClient creates a BuildKit client connected to Docker's embedded
// buildkitd via the /grpc and /session hijack endpoints. This is the same
// connection pattern used by docker/buildx internally.
//
// The caller is responsible for calling Close() on the returned client.
func NewBuildKitClient(ctx context.Context, dialer DockerDialer) (*bkclient.Client, error) {
	c, err := bkclient.New(ctx, "",
		bkclient.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return dialer.DialHijack(ctx, "/grpc", "h2c", nil)
		}),
		bkclient.WithSessionDialer(func(ctx context.Context, proto string, meta map[string][]string) (net.Conn, error) {
			return dialer.DialHijack(ctx, "/session", proto, meta)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("buildkit: failed to create client: %w", err)
	}
	return c, nil
}
