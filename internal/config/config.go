package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file name used when none is given.
const DefaultConfigFile = "pagesmith.yaml"

// Config represents the application configuration.
type Config struct {
	Version   string           `yaml:"version"`
	Source    SourceConfig     `yaml:"source"`
	Output    OutputConfig     `yaml:"output"`
	Media     MediaConfig      `yaml:"media"`
	Render    RenderConfig     `yaml:"render"`
	Build     BuildConfig      `yaml:"build"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	History   HistoryConfig    `yaml:"history"`
	Providers []ProviderConfig `yaml:"providers,omitempty"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// SourceConfig describes the template tree.
type SourceConfig struct {
	Directory     string `yaml:"directory"`
	MacroLibrary  string `yaml:"macro_library"`  // file directly under Directory, prepended to every render
	LiteralMarker string `yaml:"literal_marker"` // files starting with this are copied verbatim
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Remove output directory before build
}

// MediaConfig describes the media tree mirrored into the output.
type MediaConfig struct {
	Directory string `yaml:"directory"`
	Target    string `yaml:"target"` // subpath under the output directory
}

// RenderConfig controls the template engine.
type RenderConfig struct {
	LeftDelim     string `yaml:"left_delim"`
	RightDelim    string `yaml:"right_delim"`
	SlugDelimiter string `yaml:"slug_delimiter"`
}

// BuildConfig controls orchestration behaviour.
type BuildConfig struct {
	IncludeOrder   IncludeOrder `yaml:"include_order"`
	StrictSections bool         `yaml:"strict_sections"`
}

// MetricsConfig controls Prometheus metric export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig controls the build history ledger.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"`
}

// ProviderConfig enables one content-service provider.
type ProviderConfig struct {
	Name    string            `yaml:"name"`
	Enabled bool              `yaml:"enabled"`
	Options map[string]string `yaml:"options,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, ferrors.ConfigError("configuration file not found").
			WithContext(ferrors.KeyPath, configPath).
			Build()
	}

	// #nosec G304 -- configPath is supplied by the operator.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext(ferrors.KeyPath, configPath).
			Build()
	}

	return Parse(data)
}

// LoadOrDefault loads configPath when it exists and falls back to Default otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if envErr := loadEnvFile(); envErr != nil {
			slog.Debug("No .env file loaded", "error", envErr)
		}
		slog.Info("No configuration file found, using defaults", "path", configPath)
		cfg := Default()
		return cfg, nil
	}
	return Load(configPath)
}

// Parse decodes YAML configuration, expanding environment variables first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			Build()
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MacroLibraryPath returns the on-disk location of the macro library.
func (c *Config) MacroLibraryPath() string {
	return filepath.Join(c.Source.Directory, c.Source.MacroLibrary)
}

// MediaTargetPath returns where the media tree is mirrored inside the output.
func (c *Config) MediaTargetPath() string {
	return filepath.Join(c.Output.Directory, c.Media.Target)
}

// Provider returns the provider entry with the given name.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

// String renders a short human readable summary.
func (c *Config) String() string {
	return fmt.Sprintf("source=%s output=%s media=%s include_order=%s",
		c.Source.Directory, c.Output.Directory, c.Media.Directory, c.Build.IncludeOrder)
}
