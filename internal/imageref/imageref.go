// Package imageref models container image references.
//
// This is a Tier 1 (Leaf) package in the gantry architecture:
//   - It imports ONLY stdlib
//   - It does NOT import any internal packages
//
// A reference has three parts: registry host, repository path, and tag.
// The tag is produced once per pipeline run and is immutable after publish;
// "latest" is a mutable alias, never an identity.
package imageref

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	dockerHubHost = "index.docker.io"

	oldDockerHubHost = "docker.io"
)

var (
	// ErrInvalidRef is the base error for all reference parse failures.
	ErrInvalidRef = errors.New("invalid image reference")

	// ErrBlankRef is returned when parsing an empty string.
	ErrBlankRef = fmt.Errorf("%w: blank image name", ErrInvalidRef)

	// ErrMalformedRef is returned for strings that do not match the
	// <host>/<repository>:<tag> grammar.
	ErrMalformedRef = fmt.Errorf("%w: expected [host/]repository[:tag]", ErrInvalidRef)
)

// domainRegexp matches a registry domain component: it must contain a dot,
// a colon (port), or be "localhost" to be distinguished from the first path
// element of a repository.
var domainRegexp = regexp.MustCompile(`^(?:localhost|[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+)(?::[0-9]+)?$|^[a-zA-Z0-9-]+:[0-9]+$`)

// tagRegexp matches a valid image tag.
var tagRegexp = regexp.MustCompile(`^[\w][\w.-]{0,127}$`)

// Name is an untagged image, i.e. an image repository, optionally qualified
// by a registry host.
//
// Examples (stringified):
//   - alpine
//   - library/alpine
//   - 123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice
//   - localhost:5000/arbitrary/path/to/repo
type Name struct {
	Registry   string
	Repository string
}

func (n Name) String() string {
	if n.Repository == "" {
		return ""
	}
	if n.Registry == "" {
		return n.Repository
	}
	return n.Registry + "/" + n.Repository
}

// CanonicalRegistry returns the registry host with Docker Hub conventions
// resolved: an empty or "docker.io" host canonicalises to index.docker.io.
func (n Name) CanonicalRegistry() string {
	switch n.Registry {
	case "", oldDockerHubHost:
		return dockerHubHost
	default:
		return n.Registry
	}
}

// WithTag returns the Ref formed by tagging this name.
func (n Name) WithTag(tag string) Ref {
	return Ref{Name: n, Tag: tag}
}

// Ref is a tagged image reference. The tag may be empty when the reference
// was written without one.
//
// Examples (stringified):
//   - alpine:3.20
//   - 123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice:42
type Ref struct {
	Name
	Tag string
}

func (r Ref) String() string {
	if r.Tag == "" {
		return r.Name.String()
	}
	return r.Name.String() + ":" + r.Tag
}

// Parse parses a string into a Ref. The grammar follows the distribution
// reference format, restricted to the productions gantry needs: an optional
// registry host (recognised by a dot, a port, or "localhost"), a repository
// path, and an optional tag.
func Parse(s string) (Ref, error) {
	var ref Ref
	if s == "" {
		return ref, ErrBlankRef
	}
	if strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") {
		return ref, ErrMalformedRef
	}
	if strings.Contains(s, "@") {
		// Digest references are produced by the registry, never parsed back.
		return ref, fmt.Errorf("%w: digest references are not supported", ErrInvalidRef)
	}

	remainder := s
	if i := strings.Index(s, "/"); i >= 0 && domainRegexp.MatchString(s[:i]) {
		ref.Registry = s[:i]
		remainder = s[i+1:]
	}

	// Only the last element may carry a tag; earlier colons belong to a
	// registry port, which was consumed above.
	if i := strings.LastIndex(remainder, ":"); i >= 0 {
		tag := remainder[i+1:]
		if !tagRegexp.MatchString(tag) {
			return Ref{}, fmt.Errorf("%w: invalid tag %q", ErrInvalidRef, tag)
		}
		ref.Tag = tag
		remainder = remainder[:i]
	}

	if remainder == "" || strings.Contains(remainder, ":") {
		return Ref{}, ErrMalformedRef
	}
	ref.Repository = remainder

	return ref, nil
}

// ParseName parses a string that must not carry a tag.
func ParseName(s string) (Name, error) {
	ref, err := Parse(s)
	if err != nil {
		return Name{}, err
	}
	if ref.Tag != "" {
		return Name{}, fmt.Errorf("%w: unexpected tag %q", ErrInvalidRef, ref.Tag)
	}
	return ref.Name, nil
}

// MarshalText implements encoding.TextMarshaler so refs serialise as plain
// strings in JSON and YAML documents.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
