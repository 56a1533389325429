// Package registry resolves credentials for image publishing.
//
// ECR hosts exchange short-lived tokens through the ECR API; other private
// registries take static credentials from the environment. Credentials are
// opaque runtime values: they pass straight into the Docker SDK's auth
// header and are never persisted or logged.
package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ecr"
	dockerregistry "github.com/docker/docker/api/types/registry"

	"github.com/schmitthub/gantry/internal/logger"
)

// Environment variables for non-ECR private registries.
const (
	EnvRegistryUser  = "GANTRY_REGISTRY_USER"
	EnvRegistryToken = "GANTRY_REGISTRY_TOKEN"
)

const (
	// For recognising ECR hosts
	ecrHostSuffix = ".amazonaws.com"
	ecrHostInfix  = ".dkr.ecr."

	// How long AWS tokens remain valid
	tokenValid = 12 * time.Hour
)

// IsECRHost reports whether a registry host is an ECR endpoint.
func IsECRHost(host string) bool {
	return strings.HasSuffix(host, ecrHostSuffix) && strings.Contains(host, ecrHostInfix)
}

// ECRTokenAPI is the slice of the ECR client used for token exchange.
type ECRTokenAPI interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// cachedAuth is an encoded auth header with its expiry.
type cachedAuth struct {
	encoded string
	expires time.Time
}

// Authenticator resolves the X-Registry-Auth header for a registry host.
// ECR tokens are cached per host until they expire.
type Authenticator struct {
	// NewECRClient returns the ECR client used for token exchange. Set
	// lazily so commands that never touch ECR never build AWS config.
	NewECRClient func(ctx context.Context) (ECRTokenAPI, error)

	mu    sync.Mutex
	cache map[string]cachedAuth
	now   func() time.Time
}

// NewAuthenticator creates an Authenticator backed by the given ECR client
// constructor.
func NewAuthenticator(newECRClient func(ctx context.Context) (ECRTokenAPI, error)) *Authenticator {
	return &Authenticator{
		NewECRClient: newECRClient,
		cache:        make(map[string]cachedAuth),
		now:          time.Now,
	}
}

// AuthHeader returns the encoded auth header for pushing to host. An empty
// string means anonymous push.
func (a *Authenticator) AuthHeader(ctx context.Context, host string) (string, error) {
	if IsECRHost(host) {
		return a.ecrAuth(ctx, host)
	}

	user := os.Getenv(EnvRegistryUser)
	token := os.Getenv(EnvRegistryToken)
	if user != "" && token != "" {
		return encodeAuth(user, token, host)
	}

	logger.Debug().Str("host", host).Msg("no registry credentials, pushing anonymously")
	return "", nil
}

func (a *Authenticator) ecrAuth(ctx context.Context, host string) (string, error) {
	a.mu.Lock()
	if cached, ok := a.cache[host]; ok && a.now().Before(cached.expires) {
		a.mu.Unlock()
		return cached.encoded, nil
	}
	a.mu.Unlock()

	client, err := a.NewECRClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating ECR client: %w", err)
	}

	out, err := client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return "", fmt.Errorf("exchanging ECR authorization token: %w", err)
	}

	for _, data := range out.AuthorizationData {
		if data.AuthorizationToken == nil || data.ProxyEndpoint == nil {
			continue
		}
		// Remove the https prefix
		endpoint := strings.TrimPrefix(*data.ProxyEndpoint, "https://")
		if endpoint != host {
			continue
		}

		user, password, err := parseAuth(*data.AuthorizationToken)
		if err != nil {
			return "", err
		}
		encoded, err := encodeAuth(user, password, host)
		if err != nil {
			return "", err
		}

		expires := a.now().Add(tokenValid)
		if data.ExpiresAt != nil {
			expires = *data.ExpiresAt
		}

		a.mu.Lock()
		a.cache[host] = cachedAuth{encoded: encoded, expires: expires}
		a.mu.Unlock()

		logger.Debug().Str("host", host).Time("expires", expires).Msg("ECR token cached")
		return encoded, nil
	}

	return "", fmt.Errorf("ECR returned no authorization data for %s", host)
}

// parseAuth decodes an ECR authorization token into its user and password
// halves. The token is base64("user:password").
func parseAuth(token string) (user, password string, err error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("decoding ECR authorization token: %w", err)
	}
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", fmt.Errorf("malformed ECR authorization token")
	}
	return user, password, nil
}

// encodeAuth renders the Docker X-Registry-Auth header value.
func encodeAuth(user, password, host string) (string, error) {
	encoded, err := dockerregistry.EncodeAuthConfig(dockerregistry.AuthConfig{
		Username:      user,
		Password:      password,
		ServerAddress: host,
	})
	if err != nil {
		return "", fmt.Errorf("encoding registry auth: %w", err)
	}
	return encoded, nil
}
