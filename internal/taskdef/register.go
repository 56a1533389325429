package taskdef

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// RegisterInput converts the document into a RegisterTaskDefinitionInput.
// The conversion covers the fields gantry's scaffold emits plus the common
// optional ones; Validate should have passed first.
func (d *Document) RegisterInput() (*ecs.RegisterTaskDefinitionInput, error) {
	input := &ecs.RegisterTaskDefinitionInput{
		Family: aws.String(d.Family()),
	}

	cpu, err := d.quantityField("cpu")
	if err != nil {
		return nil, err
	}
	if cpu != "" {
		input.Cpu = aws.String(cpu)
	}
	memory, err := d.quantityField("memory")
	if err != nil {
		return nil, err
	}
	if memory != "" {
		input.Memory = aws.String(memory)
	}
	if v := d.stringField("networkMode"); v != "" {
		input.NetworkMode = ecstypes.NetworkMode(v)
	}
	if v := d.stringField("executionRoleArn"); v != "" {
		input.ExecutionRoleArn = aws.String(v)
	}
	if v := d.stringField("taskRoleArn"); v != "" {
		input.TaskRoleArn = aws.String(v)
	}
	if raw, ok := d.fields["requiresCompatibilities"]; ok {
		var compat []string
		if err := json.Unmarshal(raw, &compat); err != nil {
			return nil, templateErrorf("requiresCompatibilities must be an array of strings: %v", err)
		}
		for _, c := range compat {
			input.RequiresCompatibilities = append(input.RequiresCompatibilities, ecstypes.Compatibility(c))
		}
	}

	for _, c := range d.containers {
		def, err := c.toSDK()
		if err != nil {
			return nil, err
		}
		input.ContainerDefinitions = append(input.ContainerDefinitions, def)
	}

	return input, nil
}

// containerJSON is the subset of a container definition gantry maps onto
// the SDK type. Fields outside this subset survive render and `gantry
// render` output but are not forwarded on registration.
type containerJSON struct {
	Name             string            `json:"name"`
	Image            string            `json:"image"`
	Cpu              int32             `json:"cpu"`
	Command          []string          `json:"command"`
	EntryPoint       []string          `json:"entryPoint"`
	PortMappings     []portMapping     `json:"portMappings"`
	Environment      []keyValue        `json:"environment"`
	LogConfiguration *logConfiguration `json:"logConfiguration"`
	DependsOn        []dependsOn       `json:"dependsOn"`
	HealthCheck      *healthCheck      `json:"healthCheck"`
}

type keyValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type logConfiguration struct {
	LogDriver string            `json:"logDriver"`
	Options   map[string]string `json:"options"`
}

type dependsOn struct {
	ContainerName string `json:"containerName"`
	Condition     string `json:"condition"`
}

type healthCheck struct {
	Command     []string `json:"command"`
	Interval    *int32   `json:"interval"`
	Timeout     *int32   `json:"timeout"`
	Retries     *int32   `json:"retries"`
	StartPeriod *int32   `json:"startPeriod"`
}

func (c Container) toSDK() (ecstypes.ContainerDefinition, error) {
	raw, err := json.Marshal(c.fields)
	if err != nil {
		return ecstypes.ContainerDefinition{}, templateErrorf("container %q: %v", c.Name(), err)
	}
	var cj containerJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return ecstypes.ContainerDefinition{}, templateErrorf("container %q: %v", c.Name(), err)
	}

	def := ecstypes.ContainerDefinition{
		Name:      aws.String(cj.Name),
		Image:     aws.String(cj.Image),
		Essential: aws.Bool(c.Essential()),
		Cpu:       cj.Cpu,
	}

	if len(cj.Command) > 0 {
		def.Command = cj.Command
	}
	if len(cj.EntryPoint) > 0 {
		def.EntryPoint = cj.EntryPoint
	}

	if _, ok := c.fields["memory"]; ok {
		mib, err := c.memoryMiB("memory")
		if err != nil {
			return ecstypes.ContainerDefinition{}, err
		}
		def.Memory = aws.Int32(int32(mib))
	}
	if _, ok := c.fields["memoryReservation"]; ok {
		mib, err := c.memoryMiB("memoryReservation")
		if err != nil {
			return ecstypes.ContainerDefinition{}, err
		}
		def.MemoryReservation = aws.Int32(int32(mib))
	}

	for _, m := range cj.PortMappings {
		pm := ecstypes.PortMapping{}
		if m.ContainerPort != nil {
			pm.ContainerPort = aws.Int32(int32(*m.ContainerPort))
		}
		if m.HostPort != nil {
			pm.HostPort = aws.Int32(int32(*m.HostPort))
		}
		if m.Protocol != "" {
			pm.Protocol = ecstypes.TransportProtocol(m.Protocol)
		}
		def.PortMappings = append(def.PortMappings, pm)
	}

	for _, kv := range cj.Environment {
		def.Environment = append(def.Environment, ecstypes.KeyValuePair{
			Name:  aws.String(kv.Name),
			Value: aws.String(kv.Value),
		})
	}

	if cj.LogConfiguration != nil {
		def.LogConfiguration = &ecstypes.LogConfiguration{
			LogDriver: ecstypes.LogDriver(cj.LogConfiguration.LogDriver),
			Options:   cj.LogConfiguration.Options,
		}
	}

	for _, dep := range cj.DependsOn {
		def.DependsOn = append(def.DependsOn, ecstypes.ContainerDependency{
			ContainerName: aws.String(dep.ContainerName),
			Condition:     ecstypes.ContainerCondition(dep.Condition),
		})
	}

	if cj.HealthCheck != nil {
		def.HealthCheck = &ecstypes.HealthCheck{
			Command:     cj.HealthCheck.Command,
			Interval:    cj.HealthCheck.Interval,
			Timeout:     cj.HealthCheck.Timeout,
			Retries:     cj.HealthCheck.Retries,
			StartPeriod: cj.HealthCheck.StartPeriod,
		}
	}

	return def, nil
}
