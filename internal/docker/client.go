// Package docker wraps the Docker Engine API for gantry's build and publish
// stages. It exposes the small slice of the SDK the pipeline needs and keeps
// the JSON stream handling in one place.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/opencontainers/go-digest"
)

// APIClient is the subset of the Docker SDK client gantry uses. The concrete
// *client.Client satisfies it; dockertest provides a function-field fake.
type APIClient interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	ImageTag(ctx context.Context, source, target string) error
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	DialHijack(ctx context.Context, url, proto string, meta map[string][]string) (net.Conn, error)
	Close() error
}

// BuildKitBuildFn builds an image through BuildKit's Solve API. The buildkit
// subpackage provides the production implementation; tests inject fakes.
type BuildKitBuildFn func(ctx context.Context, opts BuildKitOpts) error

// Client is gantry's Docker client. All daemon access in the pipeline goes
// through it.
type Client struct {
	API APIClient

	// BuildKitBuilder overrides the BuildKit build path when non-nil.
	// Wired to buildkit.NewImageBuilder in production; nil falls back to
	// the legacy ImageBuild API.
	BuildKitBuilder BuildKitBuildFn
}

// NewClient connects to the Docker daemon using the standard environment
// discovery (DOCKER_HOST and friends) and verifies the connection.
func NewClient(ctx context.Context) (*Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}

	c := &Client{API: cli}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return c, nil
}

// Close releases the underlying Docker connection.
func (c *Client) Close() error {
	return c.API.Close()
}

// TagImage applies an additional tag to an existing local image. Used to
// alias a built image as :latest before publishing both references.
func (c *Client) TagImage(ctx context.Context, source, target string) error {
	if err := c.API.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("tagging %s as %s: %w", source, target, err)
	}
	return nil
}

// ImageExists reports whether an image reference resolves locally.
func (c *Client) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := c.API.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ImageID returns the content-addressable ID of a local image.
func (c *Client) ImageID(ctx context.Context, ref string) (string, error) {
	info, _, err := c.API.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("inspecting %s: %w", ref, err)
	}
	return info.ID, nil
}

// ImageDigest returns the registry digest recorded for a local image, if the
// image has been pushed or pulled. Returns an empty digest when the image is
// purely local.
func (c *Client) ImageDigest(ctx context.Context, ref string) (digest.Digest, error) {
	info, _, err := c.API.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("inspecting %s: %w", ref, err)
	}
	for _, rd := range info.RepoDigests {
		if _, after, ok := strings.Cut(rd, "@"); ok {
			d, err := digest.Parse(after)
			if err != nil {
				continue
			}
			return d, nil
		}
	}
	return "", nil
}

// isNotFoundError checks whether an error indicates a missing image.
func isNotFoundError(err error) bool {
	if cerrdefs.IsNotFound(err) {
		return true
	}
	var notFound interface{ NotFound() }
	if errors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "No such image") ||
		strings.Contains(err.Error(), "not found")
}
