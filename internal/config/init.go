package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := Default()
	cfg.Metrics.Textfile = ""
	cfg.Providers = []ProviderConfig{{
		Name:    "notion",
		Enabled: false,
		Options: map[string]string{"api_key": "${NOTION_API_KEY}"},
	}}
	return cfg
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext(ferrors.KeyPath, configPath).
			Build()
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := atomic.WriteFile(configPath, bytes.NewReader(data)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			Fatal().
			WithContext(ferrors.KeyPath, configPath).
			Build()
	}
	return nil
}
