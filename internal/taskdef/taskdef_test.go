package taskdef

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplate = `{
  "family": "ecs-microservice",
  "networkMode": "bridge",
  "cpu": "256",
  "memory": "512",
  "requiresCompatibilities": ["EC2"],
  "ephemeralStorage": {"sizeInGiB": 21},
  "containerDefinitions": [
    {
      "name": "ecs-microservice",
      "image": "123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice:1",
      "essential": true,
      "memory": "512M",
      "portMappings": [{"containerPort": 3000, "protocol": "tcp"}],
      "logConfiguration": {
        "logDriver": "awslogs",
        "options": {"awslogs-group": "/ecs/ecs-microservice"}
      },
      "ulimits": [{"name": "nofile", "softLimit": 1024, "hardLimit": 4096}]
    }
  ]
}`

func TestRenderReplacesImage(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)

	rendered, err := doc.Render("ecs-microservice", "123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice:42")
	require.NoError(t, err)

	require.Len(t, rendered.Containers(), 1)
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice:42", rendered.Containers()[0].Image())

	// Source document is untouched.
	assert.Contains(t, doc.Containers()[0].Image(), ":1")
}

func TestRenderIdempotent(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)

	first, err := doc.Render("ecs-microservice", "repo/app:42")
	require.NoError(t, err)
	firstBytes, err := first.Encode()
	require.NoError(t, err)

	second, err := doc.Render("ecs-microservice", "repo/app:42")
	require.NoError(t, err)
	secondBytes, err := second.Encode()
	require.NoError(t, err)

	assert.Equal(t, firstBytes, secondBytes)

	// Rendering the rendered output again is also byte-stable.
	reparsed, err := Parse(firstBytes)
	require.NoError(t, err)
	third, err := reparsed.Render("ecs-microservice", "repo/app:42")
	require.NoError(t, err)
	thirdBytes, err := third.Encode()
	require.NoError(t, err)
	assert.Equal(t, firstBytes, thirdBytes)
}

func TestRenderPreservesUnknownFields(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)

	rendered, err := doc.Render("ecs-microservice", "repo/app:42")
	require.NoError(t, err)
	out, err := rendered.Encode()
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.JSONEq(t, `{"sizeInGiB": 21}`, string(decoded["ephemeralStorage"]))

	var containers []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(decoded["containerDefinitions"], &containers))
	require.Len(t, containers, 1)
	assert.JSONEq(t, `[{"name": "nofile", "softLimit": 1024, "hardLimit": 4096}]`, string(containers[0]["ulimits"]))
}

func TestRenderMissingContainer(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)

	_, err = doc.Render("web", "repo/app:42")
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
	assert.Contains(t, err.Error(), `no container named "web"`)
	// The message lists the names that do exist so the mismatch is obvious.
	assert.Contains(t, err.Error(), "ecs-microservice")
}

func TestRenderDuplicateContainer(t *testing.T) {
	doc, err := Parse([]byte(`{
		"family": "f",
		"containerDefinitions": [
			{"name": "web", "essential": true},
			{"name": "web"}
		]
	}`))
	require.NoError(t, err)

	_, err = doc.Render("web", "repo/app:42")
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
	assert.Contains(t, err.Error(), "expected exactly one")
}

func TestValidate(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  string
	}{
		{
			name:     "missing family",
			template: `{"containerDefinitions": [{"name": "web", "essential": true}]}`,
			wantErr:  "family",
		},
		{
			name:     "no containers",
			template: `{"family": "f"}`,
			wantErr:  "at least one",
		},
		{
			name:     "unnamed container",
			template: `{"family": "f", "containerDefinitions": [{"essential": true}]}`,
			wantErr:  "needs a name",
		},
		{
			name: "no essential container",
			template: `{"family": "f", "containerDefinitions": [
				{"name": "web", "essential": false}
			]}`,
			wantErr: "no essential container",
		},
		{
			name: "two essential containers",
			template: `{"family": "f", "containerDefinitions": [
				{"name": "web", "essential": true},
				{"name": "sidecar", "essential": true}
			]}`,
			wantErr: "2 essential containers",
		},
		{
			name: "port out of range",
			template: `{"family": "f", "containerDefinitions": [
				{"name": "web", "essential": true, "portMappings": [{"containerPort": 70000}]}
			]}`,
			wantErr: "out of range",
		},
		{
			name: "bad protocol",
			template: `{"family": "f", "containerDefinitions": [
				{"name": "web", "essential": true, "portMappings": [{"containerPort": 80, "protocol": "sctp"}]}
			]}`,
			wantErr: "tcp or udp",
		},
		{
			name: "unparseable memory",
			template: `{"family": "f", "containerDefinitions": [
				{"name": "web", "essential": true, "memory": "lots"}
			]}`,
			wantErr: "memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.template))
			require.NoError(t, err)

			err = doc.Validate()
			require.Error(t, err)
			assert.True(t, IsTemplateError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateEssentialDefaultsTrue(t *testing.T) {
	// ECS treats a missing essential flag as true.
	doc, err := Parse([]byte(`{"family": "f", "containerDefinitions": [{"name": "web"}]}`))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())
}

func TestRegisterInput(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)
	rendered, err := doc.Render("ecs-microservice", "repo/app:42")
	require.NoError(t, err)

	input, err := rendered.RegisterInput()
	require.NoError(t, err)

	assert.Equal(t, "ecs-microservice", *input.Family)
	assert.Equal(t, "256", *input.Cpu)
	assert.Equal(t, "512", *input.Memory)
	assert.Equal(t, "bridge", string(input.NetworkMode))
	require.Len(t, input.RequiresCompatibilities, 1)
	assert.Equal(t, "EC2", string(input.RequiresCompatibilities[0]))

	require.Len(t, input.ContainerDefinitions, 1)
	def := input.ContainerDefinitions[0]
	assert.Equal(t, "ecs-microservice", *def.Name)
	assert.Equal(t, "repo/app:42", *def.Image)
	assert.True(t, *def.Essential)
	// "512M" resolves to 512 MiB
	assert.Equal(t, int32(512), *def.Memory)
	require.Len(t, def.PortMappings, 1)
	assert.Equal(t, int32(3000), *def.PortMappings[0].ContainerPort)
	assert.Equal(t, "tcp", string(def.PortMappings[0].Protocol))
	require.NotNil(t, def.LogConfiguration)
	assert.Equal(t, "awslogs", string(def.LogConfiguration.LogDriver))
}

func TestRegisterInputNumericQuantities(t *testing.T) {
	// Templates commonly write task-level cpu and memory as bare JSON
	// numbers. The ECS API takes strings, so they are converted rather
	// than silently dropped.
	doc, err := Parse([]byte(`{
		"family": "f",
		"cpu": 256,
		"memory": 1024,
		"containerDefinitions": [{"name": "web", "essential": true, "image": "repo/app:42"}]
	}`))
	require.NoError(t, err)

	input, err := doc.RegisterInput()
	require.NoError(t, err)

	require.NotNil(t, input.Cpu)
	assert.Equal(t, "256", *input.Cpu)
	require.NotNil(t, input.Memory)
	assert.Equal(t, "1024", *input.Memory)
}

func TestRegisterInputBadQuantity(t *testing.T) {
	doc, err := Parse([]byte(`{
		"family": "f",
		"cpu": true,
		"containerDefinitions": [{"name": "web", "essential": true}]
	}`))
	require.NoError(t, err)

	_, err = doc.RegisterInput()
	require.Error(t, err)
	assert.True(t, IsTemplateError(err))
	assert.Contains(t, err.Error(), "cpu must be a string or a number")
}

func TestEncodeDeterministic(t *testing.T) {
	doc, err := Parse([]byte(sampleTemplate))
	require.NoError(t, err)

	first, err := doc.Encode()
	require.NoError(t, err)
	second, err := doc.Encode()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Encode of a parse of Encode's output reproduces it.
	reparsed, err := Parse(first)
	require.NoError(t, err)
	again, err := reparsed.Encode()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}
