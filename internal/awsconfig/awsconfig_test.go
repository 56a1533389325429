package awsconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegionPrecedence(t *testing.T) {
	t.Setenv(EnvAccessKeyID, "AKIAEXAMPLE")
	t.Setenv(EnvSecretAccessKey, "secret")
	t.Setenv(EnvRegion, "eu-west-1")

	cfg, err := Load(context.Background(), "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestLoadRegionFromEnv(t *testing.T) {
	t.Setenv(EnvAccessKeyID, "AKIAEXAMPLE")
	t.Setenv(EnvSecretAccessKey, "secret")
	t.Setenv(EnvRegion, "eu-west-1")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestLoadStaticCredentials(t *testing.T) {
	t.Setenv(EnvAccessKeyID, "AKIAEXAMPLE")
	t.Setenv(EnvSecretAccessKey, "secret")
	t.Setenv(EnvSessionToken, "token")

	cfg, err := Load(context.Background(), "us-east-1")
	require.NoError(t, err)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIAEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
	assert.Equal(t, "token", creds.SessionToken)
}
