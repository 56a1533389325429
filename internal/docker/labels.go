package docker

import (
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Gantry label keys applied to built images.
const (
	// LabelPrefix is the prefix for all gantry labels.
	LabelPrefix = "com.gantry."

	// LabelManaged marks an image as built by gantry.
	LabelManaged = LabelPrefix + "managed"

	// LabelService identifies the deployed service the image belongs to.
	LabelService = LabelPrefix + "service"

	// LabelTag stores the image tag gantry assigned at build time.
	LabelTag = LabelPrefix + "tag"

	// ManagedLabelValue is the value for LabelManaged.
	ManagedLabelValue = "true"
)

// ManagedLabels returns the base label set for every gantry build.
func ManagedLabels() map[string]string {
	return map[string]string{
		LabelManaged: ManagedLabelValue,
	}
}

// BuildLabels returns the full label set for an image build: gantry's
// managed labels plus the standard OCI annotations describing provenance.
// revision is the git commit SHA the image was built from; empty values
// are omitted.
func BuildLabels(service, tag, revision, source string) map[string]string {
	labels := ManagedLabels()
	labels[ocispec.AnnotationCreated] = time.Now().UTC().Format(time.RFC3339)
	if service != "" {
		labels[LabelService] = service
	}
	if tag != "" {
		labels[LabelTag] = tag
	}
	if revision != "" {
		labels[ocispec.AnnotationRevision] = revision
	}
	if source != "" {
		labels[ocispec.AnnotationSource] = source
	}
	return labels
}

// MergeLabels combines label maps; later maps win on key conflicts.
func MergeLabels(maps ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
