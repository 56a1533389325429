// Package awsconfig builds the shared AWS SDK configuration for gantry's
// registry and rollout stages.
//
// Credentials are opaque to gantry: they come from the process environment
// (or the SDK's default chain) and are handed to the SDK untouched. They are
// never persisted and never logged.
package awsconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Environment variables consulted before the SDK's default chain.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvSessionToken    = "AWS_SESSION_TOKEN"
	EnvRegion          = "AWS_REGION"
)

// Load builds an aws.Config for the given region. A region from gantry.yaml
// takes precedence over AWS_REGION; when both are empty the SDK's own
// resolution applies and service calls fail with a clear region error.
//
// When the environment carries a complete static key pair it is wired as an
// explicit provider so the SDK skips the slower default chain (shared files,
// IMDS). Partial pairs fall through to the default chain.
func Load(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	accessKey := os.Getenv(EnvAccessKeyID)
	secretKey := os.Getenv(EnvSecretAccessKey)
	if accessKey != "" && secretKey != "" {
		provider := credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			os.Getenv(EnvSessionToken),
		)
		opts = append(opts, config.WithCredentialsProvider(provider))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
