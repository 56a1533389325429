package docker_test

import (
	"context"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schmitthub/gantry/internal/docker"
	"github.com/schmitthub/gantry/internal/docker/dockertest"
)

func TestBuildKitEnabled(t *testing.T) {
	tests := []struct {
		name string
		env  string
		ping types.Ping
		want bool
	}{
		{
			name: "daemon prefers buildkit",
			ping: types.Ping{OSType: "linux", BuilderVersion: build.BuilderBuildKit},
			want: true,
		},
		{
			name: "legacy builder on linux defaults to enabled",
			ping: types.Ping{OSType: "linux", BuilderVersion: build.BuilderV1},
			want: true,
		},
		{
			name: "legacy builder on windows stays disabled",
			ping: types.Ping{OSType: "windows", BuilderVersion: build.BuilderV1},
			want: false,
		},
		{
			name: "env var overrides daemon",
			env:  "0",
			ping: types.Ping{OSType: "linux", BuilderVersion: build.BuilderBuildKit},
			want: false,
		},
		{
			name: "env var enables",
			env:  "1",
			ping: types.Ping{OSType: "windows", BuilderVersion: build.BuilderV1},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DOCKER_BUILDKIT", tt.env)

			fake := dockertest.NewFakeAPIClient()
			fake.PingFn = func(context.Context) (types.Ping, error) {
				return tt.ping, nil
			}

			got, err := docker.BuildKitEnabled(context.Background(), fake)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildKitEnabledBadEnv(t *testing.T) {
	t.Setenv("DOCKER_BUILDKIT", "banana")

	fake := dockertest.NewFakeAPIClient()
	_, err := docker.BuildKitEnabled(context.Background(), fake)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCKER_BUILDKIT")
}
