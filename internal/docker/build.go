package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/build"

	"github.com/schmitthub/gantry/internal/logger"
)

// BuildImageOpts contains options for building an image.
type BuildImageOpts struct {
	Tags            []string           // -t, --tag (multiple allowed)
	Dockerfile      string             // -f, --file (relative to context)
	BuildArgs       map[string]*string // --build-arg KEY=VALUE
	NoCache         bool               // --no-cache
	Labels          map[string]string  // --label KEY=VALUE (merged with gantry labels)
	Target          string             // --target
	Pull            bool               // --pull (maps to PullParent)
	Quiet           bool               // -q, --quiet
	BuildKitEnabled bool               // route through BuildKit when a builder is wired
	ContextDir      string             // build context directory (required for BuildKit)
	OnOutput        func(line string)  // optional sink for build output lines
}

// BuildKitOpts carries the BuildKit build parameters. Labels and tags are
// already merged when the builder closure receives them.
type BuildKitOpts struct {
	Tags       []string
	ContextDir string
	Dockerfile string
	BuildArgs  map[string]*string
	NoCache    bool
	Labels     map[string]string
	Target     string
	Pull       bool
	Quiet      bool
}

// BuildImage builds an image from a build context. When BuildKit is enabled
// and a builder closure is wired, the build runs through BuildKit's Solve API
// (filesystem mounts, cache mount support). Otherwise it uses the legacy
// ImageBuild endpoint with a tar stream.
//
// A non-nil error from either path is a failed build; no image is tagged.
func (c *Client) BuildImage(ctx context.Context, buildContext io.Reader, opts BuildImageOpts) error {
	opts.Labels = MergeLabels(ManagedLabels(), opts.Labels)

	if opts.BuildKitEnabled && c.BuildKitBuilder != nil && opts.ContextDir != "" {
		return c.BuildKitBuilder(ctx, BuildKitOpts{
			Tags:       opts.Tags,
			ContextDir: opts.ContextDir,
			Dockerfile: opts.Dockerfile,
			BuildArgs:  opts.BuildArgs,
			NoCache:    opts.NoCache,
			Labels:     opts.Labels,
			Target:     opts.Target,
			Pull:       opts.Pull,
			Quiet:      opts.Quiet,
		})
	}

	resp, err := c.API.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:           opts.Tags,
		Dockerfile:     opts.Dockerfile,
		Remove:         true,
		NoCache:        opts.NoCache,
		BuildArgs:      opts.BuildArgs,
		Labels:         opts.Labels,
		Target:         opts.Target,
		PullParent:     opts.Pull,
		SuppressOutput: opts.Quiet,
	})
	if err != nil {
		return fmt.Errorf("building image: %w", err)
	}
	defer resp.Body.Close()

	return processBuildOutput(resp.Body, opts.OnOutput)
}

// buildEvent represents a Docker build stream event.
type buildEvent struct {
	Stream      string `json:"stream"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

// processBuildOutput consumes the daemon's JSON build stream, forwarding
// output lines and surfacing the first error event. Even quiet builds must
// drain the stream: errors arrive on it.
func processBuildOutput(reader io.Reader, onOutput func(string)) error {
	scanner := bufio.NewScanner(reader)
	var parseErrors int

	for scanner.Scan() {
		var event buildEvent

		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			parseErrors++
			logger.Debug().
				Err(err).
				Str("raw", string(scanner.Bytes())).
				Msg("failed to parse build output event")
			// After many consecutive failures, consider the stream corrupted
			if parseErrors > 10 {
				return fmt.Errorf("build output stream appears corrupted: %d consecutive parse failures", parseErrors)
			}
			continue
		}
		parseErrors = 0

		if event.Error != "" {
			return fmt.Errorf("build error: %s", event.Error)
		}
		if event.ErrorDetail.Message != "" {
			return fmt.Errorf("build error: %s", event.ErrorDetail.Message)
		}

		if stream := strings.TrimSpace(event.Stream); stream != "" {
			logger.Debug().Msg(stream)
			if onOutput != nil {
				onOutput(stream)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading build output: %w", err)
	}

	logger.Debug().Msg("image build complete")
	return nil
}
