package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schmitthub/gantry/internal/logger"
)

// Validator validates a Config for correctness.
type Validator struct {
	workDir  string
	errors   []error
	warnings []string
}

// NewValidator creates a new validator for the given working directory.
func NewValidator(workDir string) *Validator {
	return &Validator{
		workDir:  workDir,
		errors:   []error{},
		warnings: []string{},
	}
}

// Validate checks the configuration for errors and returns all found issues.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = []error{}
	v.warnings = []string{}

	v.validateVersion(cfg)
	v.validateService(cfg)
	v.validateImage(cfg)
	v.validateBuild(cfg)
	v.validateTask(cfg)
	v.validateDeploy(cfg)

	if len(v.errors) > 0 {
		return &MultiValidationError{Errors: v.errors}
	}
	return nil
}

func (v *Validator) addError(field, message string, value interface{}) {
	v.errors = append(v.errors, &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
}

func (v *Validator) addWarning(field, message string) {
	warning := fmt.Sprintf("%s: %s", field, message)
	v.warnings = append(v.warnings, warning)
	logger.Warn().
		Str("field", field).
		Msg(message)
}

// Warnings returns the list of validation warnings.
func (v *Validator) Warnings() []string {
	return v.warnings
}

func (v *Validator) validateVersion(cfg *Config) {
	if cfg.Version == "" {
		v.addError("version", "is required", nil)
		return
	}
	if cfg.Version != DefaultVersion {
		v.addError("version", "must be '1' (only supported version)", cfg.Version)
	}
}

func (v *Validator) validateService(cfg *Config) {
	if cfg.Service.Cluster == "" {
		v.addError("service.cluster", "is required", nil)
	}
	if cfg.Service.Service == "" {
		v.addError("service.service", "is required", nil)
	}
	if cfg.Service.Region == "" && os.Getenv("AWS_REGION") == "" && os.Getenv("AWS_DEFAULT_REGION") == "" {
		v.addWarning("service.region", "no region configured; relying on the SDK default chain")
	}
}

func (v *Validator) validateImage(cfg *Config) {
	if cfg.Image.Repository == "" {
		v.addError("image.repository", "is required", nil)
		return
	}
	if strings.Contains(cfg.Image.Repository, ":") && !strings.Contains(cfg.Image.Repository, "/") {
		v.addError("image.repository", "must not include a tag", cfg.Image.Repository)
	}
}

func (v *Validator) validateBuild(cfg *Config) {
	if cfg.Build.Dockerfile != "" {
		dockerfilePath := cfg.Build.Dockerfile
		if !filepath.IsAbs(dockerfilePath) {
			dockerfilePath = filepath.Join(v.workDir, dockerfilePath)
		}
		if _, err := os.Stat(dockerfilePath); os.IsNotExist(err) {
			v.addError("build.dockerfile", "file does not exist", cfg.Build.Dockerfile)
		}
		return
	}

	// Generated recipe path: the recipe fields must describe a buildable image.
	if cfg.Build.BaseImage == "" {
		v.addError("build.base_image", "is required when no dockerfile is set", nil)
	}
	if cfg.Build.Command == "" {
		v.addError("build.command", "is required when no dockerfile is set", nil)
	}
	if cfg.Build.Port < 0 || cfg.Build.Port > 65535 {
		v.addError("build.port", "must be between 0 and 65535", cfg.Build.Port)
	}

	if cfg.Build.Context != "" {
		contextPath := cfg.Build.Context
		if !filepath.IsAbs(contextPath) {
			contextPath = filepath.Join(v.workDir, contextPath)
		}
		if info, err := os.Stat(contextPath); os.IsNotExist(err) {
			v.addError("build.context", "directory does not exist", cfg.Build.Context)
		} else if err == nil && !info.IsDir() {
			v.addError("build.context", "is not a directory", cfg.Build.Context)
		}
	}
}

func (v *Validator) validateTask(cfg *Config) {
	if cfg.Task.Template == "" {
		v.addError("task.template", "is required", nil)
	}
	if cfg.Task.Container == "" {
		v.addError("task.container", "is required", nil)
	}
}

func (v *Validator) validateDeploy(cfg *Config) {
	if cfg.Deploy.Timeout < 0 {
		v.addError("deploy.timeout", "must not be negative", cfg.Deploy.Timeout.String())
	}
	if cfg.Deploy.Timeout > 0 && cfg.Deploy.Timeout < 30*time.Second {
		v.addWarning("deploy.timeout", "timeouts under 30s rarely cover a full rolling replacement")
	}
}

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError holds multiple validation errors.
type MultiValidationError struct {
	Errors []error
}

func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d configuration errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidationErrors returns the individual errors.
func (e *MultiValidationError) ValidationErrors() []error {
	return e.Errors
}
