package docker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/image"
	"github.com/opencontainers/go-digest"

	"github.com/schmitthub/gantry/internal/logger"
)

// PushImageOpts contains options for publishing an image.
type PushImageOpts struct {
	// RegistryAuth is the pre-encoded X-Registry-Auth header value.
	// Empty means anonymous push. The raw credential never appears in
	// logs or errors.
	RegistryAuth string

	// OnProgress receives layer status lines as the push advances.
	OnProgress func(line string)
}

// PushImage publishes a tagged image to its registry and returns the
// manifest digest the registry reported. The ref must carry its full
// registry-qualified name; the daemon routes by the name alone.
func (c *Client) PushImage(ctx context.Context, ref string, opts PushImageOpts) (digest.Digest, error) {
	body, err := c.API.ImagePush(ctx, ref, image.PushOptions{
		RegistryAuth: opts.RegistryAuth,
	})
	if err != nil {
		return "", fmt.Errorf("pushing %s: %w", ref, err)
	}
	defer body.Close()

	return processPushOutput(body, opts.OnProgress)
}

// pushEvent represents a Docker push stream event. The final aux message
// carries the manifest digest assigned by the registry.
type pushEvent struct {
	Status      string `json:"status"`
	ID          string `json:"id"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
	Aux *struct {
		Tag    string `json:"Tag"`
		Digest string `json:"Digest"`
		Size   int    `json:"Size"`
	} `json:"aux"`
}

func processPushOutput(reader io.Reader, onProgress func(string)) (digest.Digest, error) {
	scanner := bufio.NewScanner(reader)
	var parseErrors int
	var manifest digest.Digest

	for scanner.Scan() {
		var event pushEvent

		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			parseErrors++
			logger.Debug().
				Err(err).
				Str("raw", string(scanner.Bytes())).
				Msg("failed to parse push output event")
			if parseErrors > 10 {
				return "", fmt.Errorf("push output stream appears corrupted: %d consecutive parse failures", parseErrors)
			}
			continue
		}
		parseErrors = 0

		if event.Error != "" {
			return "", fmt.Errorf("push error: %s", event.Error)
		}
		if event.ErrorDetail.Message != "" {
			return "", fmt.Errorf("push error: %s", event.ErrorDetail.Message)
		}

		if event.Aux != nil && event.Aux.Digest != "" {
			d, err := digest.Parse(event.Aux.Digest)
			if err != nil {
				return "", fmt.Errorf("registry reported malformed digest %q: %w", event.Aux.Digest, err)
			}
			manifest = d
			continue
		}

		if event.Status != "" {
			line := event.Status
			if event.ID != "" {
				line = event.ID + ": " + event.Status
			}
			logger.Debug().Msg(line)
			if onProgress != nil {
				onProgress(line)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading push output: %w", err)
	}

	if manifest == "" {
		return "", fmt.Errorf("push completed without a digest from the registry")
	}

	logger.Debug().Str("digest", manifest.String()).Msg("image push complete")
	return manifest, nil
}
