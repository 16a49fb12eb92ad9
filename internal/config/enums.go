package config

import (
	"log/slog"
	"strings"
)

// IncludeOrder selects how the in-memory render pass orders files.
type IncludeOrder string

const (
	// IncludeOrderDependency renders included files before the files that include them.
	IncludeOrderDependency IncludeOrder = "dependency"
	// IncludeOrderSweep renders files in plain enumeration order.
	IncludeOrderSweep IncludeOrder = "sweep"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var includeOrders = map[string]IncludeOrder{
	"dependency": IncludeOrderDependency,
	"deps":       IncludeOrderDependency,
	"sweep":      IncludeOrderSweep,
	"linear":     IncludeOrderSweep,
}

var logLevels = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}

var logFormats = map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}

func normalizeEnum[T ~string](values map[string]T, raw string, fallback T) T {
	if v, ok := values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return fallback
}

// NormalizeIncludeOrder maps user input to an IncludeOrder, defaulting to dependency.
func NormalizeIncludeOrder(raw string) IncludeOrder {
	return normalizeEnum(includeOrders, raw, IncludeOrderDependency)
}

// NormalizeLogLevel maps user input to a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	return normalizeEnum(logLevels, raw, LogLevelInfo)
}

// NormalizeLogFormat maps user input to a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	return normalizeEnum(logFormats, raw, LogFormatText)
}

// SlogLevel converts the configured level to a slog.Level.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
