package imageref

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Ref
		wantErr  bool
		errMatch error
	}{
		{
			name:  "bare repository",
			input: "alpine",
			want:  Ref{Name: Name{Repository: "alpine"}},
		},
		{
			name:  "repository with tag",
			input: "alpine:3.20",
			want:  Ref{Name: Name{Repository: "alpine"}, Tag: "3.20"},
		},
		{
			name:  "namespaced repository",
			input: "weaveworks/flux",
			want:  Ref{Name: Name{Repository: "weaveworks/flux"}},
		},
		{
			name:  "ecr host with tag",
			input: "123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice:42",
			want: Ref{
				Name: Name{
					Registry:   "123456789012.dkr.ecr.us-east-1.amazonaws.com",
					Repository: "ecs-microservice",
				},
				Tag: "42",
			},
		},
		{
			name:  "localhost with port",
			input: "localhost:5000/arbitrary/path/to/repo:rev-abc123",
			want: Ref{
				Name: Name{Registry: "localhost:5000", Repository: "arbitrary/path/to/repo"},
				Tag:  "rev-abc123",
			},
		},
		{
			name:  "first path element without dot is not a host",
			input: "weaveworks/flux:1.1.0",
			want:  Ref{Name: Name{Repository: "weaveworks/flux"}, Tag: "1.1.0"},
		},
		{
			name:     "blank",
			input:    "",
			wantErr:  true,
			errMatch: ErrBlankRef,
		},
		{
			name:     "leading slash",
			input:    "/alpine",
			wantErr:  true,
			errMatch: ErrMalformedRef,
		},
		{
			name:     "trailing slash",
			input:    "alpine/",
			wantErr:  true,
			errMatch: ErrMalformedRef,
		},
		{
			name:    "digest reference",
			input:   "alpine@sha256:deadbeef",
			wantErr: true,
		},
		{
			name:    "invalid tag",
			input:   "alpine:not a tag",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMatch != nil {
					assert.ErrorIs(t, err, tt.errMatch)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			// Round trip holds for every valid input.
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestParseName(t *testing.T) {
	name, err := ParseName("123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice")
	require.NoError(t, err)
	assert.Equal(t, "ecs-microservice", name.Repository)

	_, err = ParseName("ecs-microservice:42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestCanonicalRegistry(t *testing.T) {
	assert.Equal(t, "index.docker.io", Name{Repository: "alpine"}.CanonicalRegistry())
	assert.Equal(t, "index.docker.io", Name{Registry: "docker.io", Repository: "alpine"}.CanonicalRegistry())
	assert.Equal(t, "quay.io", Name{Registry: "quay.io", Repository: "flux"}.CanonicalRegistry())
}

func TestWithTag(t *testing.T) {
	name, err := ParseName("registry.example.com/app")
	require.NoError(t, err)

	ref := name.WithTag("42")
	assert.Equal(t, "registry.example.com/app:42", ref.String())
	// The name value is unchanged; WithTag derives a new Ref.
	assert.Equal(t, "registry.example.com/app", name.String())
}

func TestRefJSONRoundTrip(t *testing.T) {
	ref, err := Parse("registry.example.com/app:42")
	require.NoError(t, err)

	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.Equal(t, `"registry.example.com/app:42"`, string(data))

	var back Ref
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ref, back)
}
