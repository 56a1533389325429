package config

import "time"

// Config is the root configuration structure for gantry.yaml.
type Config struct {
	Version string        `yaml:"version" mapstructure:"version"`
	Service ServiceConfig `yaml:"service" mapstructure:"service"`
	Image   ImageConfig   `yaml:"image" mapstructure:"image"`
	Build   BuildConfig   `yaml:"build" mapstructure:"build"`
	Task    TaskConfig    `yaml:"task" mapstructure:"task"`
	Deploy  DeployConfig  `yaml:"deploy" mapstructure:"deploy"`
	Logging LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
}

// ServiceConfig identifies the deployment target. The cluster and service
// must already exist in the orchestrator; gantry never creates them.
type ServiceConfig struct {
	Cluster string `yaml:"cluster" mapstructure:"cluster"`
	Service string `yaml:"service" mapstructure:"service"`
	Region  string `yaml:"region,omitempty" mapstructure:"region"`
}

// ImageConfig defines where built images are published.
type ImageConfig struct {
	// Repository is the full repository the image is pushed to, e.g.
	// "123456789012.dkr.ecr.us-east-1.amazonaws.com/ecs-microservice".
	Repository string `yaml:"repository" mapstructure:"repository"`

	// Tag overrides tag derivation. Empty means derive from git HEAD.
	Tag string `yaml:"tag,omitempty" mapstructure:"tag"`

	// PushLatest controls whether each push also moves the mutable
	// "latest" alias. Defaults to true.
	PushLatest *bool `yaml:"push_latest,omitempty" mapstructure:"push_latest"`
}

// BuildConfig defines how the image is built. When Dockerfile is set, the
// file is used as-is; otherwise gantry generates a recipe from the
// remaining fields.
type BuildConfig struct {
	Dockerfile string            `yaml:"dockerfile,omitempty" mapstructure:"dockerfile"`
	Context    string            `yaml:"context,omitempty" mapstructure:"context"`
	BaseImage  string            `yaml:"base_image,omitempty" mapstructure:"base_image"`
	Workdir    string            `yaml:"workdir,omitempty" mapstructure:"workdir"`
	Manifest   string            `yaml:"manifest,omitempty" mapstructure:"manifest"`
	Install    string            `yaml:"install,omitempty" mapstructure:"install"`
	Command    string            `yaml:"command,omitempty" mapstructure:"command"`
	Port       int               `yaml:"port,omitempty" mapstructure:"port"`
	Args       map[string]string `yaml:"args,omitempty" mapstructure:"args"`
	Labels     map[string]string `yaml:"labels,omitempty" mapstructure:"labels"`
}

// UseCustomDockerfile reports whether the build uses a user-provided
// Dockerfile instead of a generated recipe.
func (b BuildConfig) UseCustomDockerfile() bool {
	return b.Dockerfile != ""
}

// TaskConfig locates the task definition template and names the container
// entry whose image the renderer replaces.
type TaskConfig struct {
	Template  string `yaml:"template" mapstructure:"template"`
	Container string `yaml:"container" mapstructure:"container"`
}

// DeployConfig controls rollout behavior.
type DeployConfig struct {
	// Wait blocks the deploy until the service converges or the timeout
	// fires. When false, deploys are fire-and-forget.
	Wait *bool `yaml:"wait,omitempty" mapstructure:"wait"`

	// Timeout bounds the stability wait.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// LoggingConfig controls the rotating file log.
type LoggingConfig struct {
	FileEnabled bool `yaml:"file_enabled" mapstructure:"file_enabled"`
	MaxSizeMB   int  `yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxAgeDays  int  `yaml:"max_age_days,omitempty" mapstructure:"max_age_days"`
	MaxBackups  int  `yaml:"max_backups,omitempty" mapstructure:"max_backups"`
}

// ShouldPushLatest resolves the push_latest default (true).
func (i ImageConfig) ShouldPushLatest() bool {
	return i.PushLatest == nil || *i.PushLatest
}

// ShouldWait resolves the wait default (true).
func (d DeployConfig) ShouldWait() bool {
	return d.Wait == nil || *d.Wait
}
