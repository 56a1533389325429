package config

import "time"

// Default values applied by the loader when gantry.yaml omits a field.
const (
	// DefaultVersion is the only supported schema version.
	DefaultVersion = "1"

	// DefaultBuildContext is the build context directory relative to the
	// work dir.
	DefaultBuildContext = "."

	// DefaultTemplate is the task definition template path relative to
	// the work dir.
	DefaultTemplate = "taskdef.json"

	// DefaultDeployTimeout bounds the stability wait.
	DefaultDeployTimeout = 10 * time.Minute

	// DefaultLogMaxSizeMB is the file log rotation threshold.
	DefaultLogMaxSizeMB = 10
	// DefaultLogMaxAgeDays is how long rotated logs are kept.
	DefaultLogMaxAgeDays = 30
	// DefaultLogMaxBackups is how many rotated logs are kept.
	DefaultLogMaxBackups = 5
)

// DefaultConfig returns a Config populated with defaults. Fields without a
// sensible default (service identity, image repository) are left empty and
// caught by the validator.
func DefaultConfig() *Config {
	return &Config{
		Version: DefaultVersion,
		Build: BuildConfig{
			Context: DefaultBuildContext,
		},
		Task: TaskConfig{
			Template: DefaultTemplate,
		},
		Deploy: DeployConfig{
			Timeout: DefaultDeployTimeout,
		},
		Logging: LoggingConfig{
			FileEnabled: true,
			MaxSizeMB:   DefaultLogMaxSizeMB,
			MaxAgeDays:  DefaultLogMaxAgeDays,
			MaxBackups:  DefaultLogMaxBackups,
		},
	}
}
