// Package taskdef loads, renders and validates task definition templates.
//
// A template is an ECS-shaped JSON document on disk. Rendering is pure and
// deterministic: the only mutation is the image field of the single matching
// container entry, every other field round-trips verbatim as raw JSON, and
// encoding uses stable key order. Rendering the same template with the same
// reference twice yields byte-identical output.
package taskdef

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// TemplateError reports a problem with the task definition template or its
// relationship to the configuration. Template errors surface before any
// orchestrator call.
type TemplateError struct {
	Reason string
}

func (e *TemplateError) Error() string {
	return "template error: " + e.Reason
}

// FormatUserError renders the error for terminal display.
func (e *TemplateError) FormatUserError() string {
	return "Template error: " + e.Reason
}

func templateErrorf(format string, args ...any) error {
	return &TemplateError{Reason: fmt.Sprintf(format, args...)}
}

// IsTemplateError reports whether err is a TemplateError.
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}

const containerDefinitionsKey = "containerDefinitions"

// Document is a parsed task definition. Fields gantry does not understand
// are preserved as raw JSON so they survive render unchanged.
type Document struct {
	fields     map[string]json.RawMessage
	containers []Container
}

// Container is a single containerDefinitions entry with raw-field
// passthrough.
type Container struct {
	fields map[string]json.RawMessage
}

// Load reads and parses a template file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, templateErrorf("reading template: %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses template bytes into a Document.
func Parse(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, templateErrorf("invalid JSON: %v", err)
	}

	doc := &Document{fields: fields}

	raw, ok := fields[containerDefinitionsKey]
	if !ok {
		return doc, nil
	}

	var rawContainers []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rawContainers); err != nil {
		return nil, templateErrorf("containerDefinitions must be an array of objects: %v", err)
	}
	for _, rc := range rawContainers {
		doc.containers = append(doc.containers, Container{fields: rc})
	}
	return doc, nil
}

// Family returns the task definition family name, empty when absent.
func (d *Document) Family() string {
	return d.stringField("family")
}

// Containers returns the parsed container entries.
func (d *Document) Containers() []Container {
	return d.containers
}

func (d *Document) stringField(key string) string {
	raw, ok := d.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// quantityField resolves a task-level resource field that templates write
// either as a JSON string ("1024") or a bare number (1024). The ECS API
// takes strings, so numbers are converted. Absent fields return "".
func (d *Document) quantityField(key string) (string, error) {
	raw, ok := d.fields[key]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", templateErrorf("%s must be a string or a number, got %s", key, raw)
	}
	return n.String(), nil
}

// Name returns the container's name field, empty when absent.
func (c Container) Name() string {
	return c.stringField("name")
}

// Image returns the container's image field, empty when absent.
func (c Container) Image() string {
	return c.stringField("image")
}

// Essential reports the container's essential flag. ECS defaults a missing
// flag to true.
func (c Container) Essential() bool {
	raw, ok := c.fields["essential"]
	if !ok {
		return true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

func (c Container) stringField(key string) string {
	raw, ok := c.fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Render returns a copy of the document with the image of the single
// container named containerName replaced by imageRef. Zero or multiple
// matches is a TemplateError: the template and the configuration disagree
// and nothing should be submitted.
func (d *Document) Render(containerName, imageRef string) (*Document, error) {
	matches := 0
	for _, c := range d.containers {
		if c.Name() == containerName {
			matches++
		}
	}
	switch {
	case matches == 0:
		return nil, templateErrorf("no container named %q in template (containers: %s)", containerName, containerNames(d.containers))
	case matches > 1:
		return nil, templateErrorf("%d containers named %q in template, expected exactly one", matches, containerName)
	}

	out := &Document{fields: make(map[string]json.RawMessage, len(d.fields))}
	for k, v := range d.fields {
		out.fields[k] = v
	}
	for _, c := range d.containers {
		nc := Container{fields: make(map[string]json.RawMessage, len(c.fields))}
		for k, v := range c.fields {
			nc.fields[k] = v
		}
		if nc.Name() == containerName {
			img, err := json.Marshal(imageRef)
			if err != nil {
				return nil, fmt.Errorf("encoding image reference: %w", err)
			}
			nc.fields["image"] = img
		}
		out.containers = append(out.containers, nc)
	}

	if err := out.syncContainers(); err != nil {
		return nil, err
	}
	return out, nil
}

// syncContainers rewrites the containerDefinitions raw field from the parsed
// containers.
func (d *Document) syncContainers() error {
	if len(d.containers) == 0 {
		return nil
	}
	encoded := make([]map[string]json.RawMessage, 0, len(d.containers))
	for _, c := range d.containers {
		encoded = append(encoded, c.fields)
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encoding container definitions: %w", err)
	}
	d.fields[containerDefinitionsKey] = raw
	return nil
}

// Encode renders the document as deterministic JSON: sorted keys, two-space
// indent, trailing newline. Encoding an unmodified parse of its own output
// reproduces it byte for byte.
func (d *Document) Encode() ([]byte, error) {
	if err := d.syncContainers(); err != nil {
		return nil, err
	}
	// Round-trip through any so nested objects also get sorted keys.
	canonical, err := json.Marshal(d.fields)
	if err != nil {
		return nil, fmt.Errorf("encoding task definition: %w", err)
	}
	var v any
	if err := json.Unmarshal(canonical, &v); err != nil {
		return nil, fmt.Errorf("encoding task definition: %w", err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding task definition: %w", err)
	}
	return append(out, '\n'), nil
}

func containerNames(containers []Container) string {
	names, err := json.Marshal(namesOf(containers))
	if err != nil {
		return "[]"
	}
	return string(names)
}

func namesOf(containers []Container) []string {
	out := make([]string, 0, len(containers))
	for _, c := range containers {
		out = append(out, c.Name())
	}
	return out
}
