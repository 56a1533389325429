package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "gantry.yaml"

	// ConfigPathEnv overrides config file discovery when set.
	ConfigPathEnv = "GANTRY_CONFIG"
)

// Loader handles loading and parsing of gantry configuration.
type Loader struct {
	workDir    string
	configPath string // explicit override; wins over env and workDir discovery
	viper      *viper.Viper
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPath pins the loader to an explicit config file path,
// bypassing env and work dir discovery. Used by the --config flag.
func WithConfigPath(path string) LoaderOption {
	return func(l *Loader) {
		l.configPath = path
	}
}

// NewLoader creates a configuration loader for the given working directory.
func NewLoader(workDir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ConfigPath returns the resolved path of the config file:
// explicit option > GANTRY_CONFIG env > <workDir>/gantry.yaml.
func (l *Loader) ConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	if env := os.Getenv(ConfigPathEnv); env != "" {
		return env
	}
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// Load reads and parses the gantry.yaml configuration file.
func (l *Loader) Load() (*Config, error) {
	configPath := l.ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")

	defaults := DefaultConfig()
	l.viper.SetDefault("version", defaults.Version)
	l.viper.SetDefault("build.context", defaults.Build.Context)
	l.viper.SetDefault("task.template", defaults.Task.Template)
	l.viper.SetDefault("deploy.timeout", defaults.Deploy.Timeout)
	l.viper.SetDefault("logging.file_enabled", defaults.Logging.FileEnabled)
	l.viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	l.viper.SetDefault("logging.max_age_days", defaults.Logging.MaxAgeDays)
	l.viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// WorkDir returns the directory the loader resolves relative paths against.
func (l *Loader) WorkDir() string {
	return l.workDir
}

// TemplatePath resolves the task definition template path of cfg against
// the loader's work dir.
func (l *Loader) TemplatePath(cfg *Config) string {
	if filepath.IsAbs(cfg.Task.Template) {
		return cfg.Task.Template
	}
	return filepath.Join(l.workDir, cfg.Task.Template)
}

// ConfigNotFoundError is returned when the config file doesn't exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("configuration file not found: %s (run 'gantry init' to create one)", e.Path)
}

// IsConfigNotFound returns true if the error is a ConfigNotFoundError.
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}
