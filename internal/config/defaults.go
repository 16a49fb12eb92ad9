package config

import "path/filepath"

// Default values shared by Default and applyDefaults.
const (
	DefaultSourceDir     = "src"
	DefaultOutputDir     = "build"
	DefaultMediaDir      = "media"
	DefaultMacroLibrary  = "lib.tmpl"
	DefaultLiteralMarker = "!norender"
	DefaultLeftDelim     = `\o/`
	DefaultRightDelim    = `/o\`
	DefaultSlugDelimiter = "-"
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	cfg := &Config{Version: "1"}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills zero values. Explicit user values always win.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Source.Directory == "" {
		cfg.Source.Directory = DefaultSourceDir
	}
	if cfg.Source.MacroLibrary == "" {
		cfg.Source.MacroLibrary = DefaultMacroLibrary
	}
	if cfg.Source.LiteralMarker == "" {
		cfg.Source.LiteralMarker = DefaultLiteralMarker
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Media.Directory == "" {
		cfg.Media.Directory = DefaultMediaDir
	}
	if cfg.Media.Target == "" {
		cfg.Media.Target = filepath.Base(cfg.Media.Directory)
	}
	if cfg.Render.LeftDelim == "" {
		cfg.Render.LeftDelim = DefaultLeftDelim
	}
	if cfg.Render.RightDelim == "" {
		cfg.Render.RightDelim = DefaultRightDelim
	}
	if cfg.Render.SlugDelimiter == "" {
		cfg.Render.SlugDelimiter = DefaultSlugDelimiter
	}
	cfg.Build.IncludeOrder = NormalizeIncludeOrder(string(cfg.Build.IncludeOrder))
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
