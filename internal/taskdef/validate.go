package taskdef

import (
	"encoding/json"

	"github.com/docker/go-units"
)

// portMapping is the slice of a containerDefinitions portMappings entry
// gantry validates.
type portMapping struct {
	ContainerPort *int   `json:"containerPort"`
	HostPort      *int   `json:"hostPort"`
	Protocol      string `json:"protocol"`
}

// Validate checks the invariants a document must satisfy before it may be
// submitted to the orchestrator. Violations are TemplateErrors.
//
// The essential-flag rule is strict: exactly one container must be marked
// essential. Zero means the task has no anchor process; more than one means
// an unrelated sidecar failure would kill the deployment's health signal.
func (d *Document) Validate() error {
	if d.Family() == "" {
		return templateErrorf("family must be a non-empty string")
	}

	if len(d.containers) == 0 {
		return templateErrorf("containerDefinitions must contain at least one entry")
	}

	essential := 0
	for _, c := range d.containers {
		if c.Name() == "" {
			return templateErrorf("every container definition needs a name")
		}
		if c.Essential() {
			essential++
		}
		if err := c.validatePorts(); err != nil {
			return err
		}
		if err := c.validateMemory(); err != nil {
			return err
		}
	}
	if essential == 0 {
		return templateErrorf("no essential container in template, expected exactly one")
	}
	if essential > 1 {
		return templateErrorf("%d essential containers in template, expected exactly one", essential)
	}

	return nil
}

func (c Container) validatePorts() error {
	raw, ok := c.fields["portMappings"]
	if !ok {
		return nil
	}
	var mappings []portMapping
	if err := json.Unmarshal(raw, &mappings); err != nil {
		return templateErrorf("container %q: portMappings must be an array of objects: %v", c.Name(), err)
	}
	for _, m := range mappings {
		if m.ContainerPort == nil {
			return templateErrorf("container %q: port mapping missing containerPort", c.Name())
		}
		if *m.ContainerPort < 1 || *m.ContainerPort > 65535 {
			return templateErrorf("container %q: containerPort %d out of range", c.Name(), *m.ContainerPort)
		}
		if m.HostPort != nil && (*m.HostPort < 0 || *m.HostPort > 65535) {
			return templateErrorf("container %q: hostPort %d out of range", c.Name(), *m.HostPort)
		}
		if m.Protocol != "" && m.Protocol != "tcp" && m.Protocol != "udp" {
			return templateErrorf("container %q: protocol %q must be tcp or udp", c.Name(), m.Protocol)
		}
	}
	return nil
}

// validateMemory checks memory and memoryReservation. ECS expects MiB
// integers, but templates may use human-readable strings ("512M", "2G")
// which are parsed with go-units.
func (c Container) validateMemory() error {
	for _, key := range []string{"memory", "memoryReservation"} {
		if _, ok := c.fields[key]; !ok {
			continue
		}
		if _, err := c.memoryMiB(key); err != nil {
			return err
		}
	}
	return nil
}

// memoryMiB resolves a memory field to MiB, accepting either a JSON number
// (already MiB) or a string with units.
func (c Container) memoryMiB(key string) (int64, error) {
	raw := c.fields[key]

	var mib int64
	if err := json.Unmarshal(raw, &mib); err == nil {
		if mib <= 0 {
			return 0, templateErrorf("container %q: %s must be positive", c.Name(), key)
		}
		return mib, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, templateErrorf("container %q: %s must be a number or a size string", c.Name(), key)
	}
	bytes, err := units.RAMInBytes(s)
	if err != nil {
		return 0, templateErrorf("container %q: %s %q: %v", c.Name(), key, s, err)
	}
	if bytes <= 0 {
		return 0, templateErrorf("container %q: %s must be positive", c.Name(), key)
	}
	return bytes / units.MiB, nil
}
