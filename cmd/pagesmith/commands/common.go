package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagesmith/internal/build"
	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/history"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pagesmith.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render the source tree into the output directory"`
	Init    InitCmd    `cmd:"" help:"Create a configuration file and an example source tree"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild whenever the source or media tree changes"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	format := config.LogFormatText
	if cfg, err := config.LoadOrDefault(c.Config); err == nil {
		level = cfg.Logging.Level.SlogLevel()
		format = cfg.Logging.Format
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads the configuration and applies an output directory override.
func loadConfig(path, output string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if output != "" {
		cfg.Output.Directory = output
	}
	return cfg, nil
}

// RunBuild runs one build, exporting metrics and recording history when
// configured.
func RunBuild(ctx context.Context, cfg *config.Config, opts ...build.Option) (*build.Report, error) {
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		opts = append(opts, build.WithRecorder(prom))
	}

	report, buildErr := build.NewBuilder(cfg, opts...).Run(ctx)

	if prom != nil {
		if err := prom.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}

	if cfg.History.Database != "" && report != nil {
		recordHistory(ctx, cfg.History.Database, report)
	}

	return report, buildErr
}

func recordHistory(ctx context.Context, dbPath string, report *build.Report) {
	store, err := history.Open(dbPath)
	if err != nil {
		slog.Warn("Failed to open history database", logfields.Path(dbPath), logfields.Error(err))
		return
	}
	defer func() {
		_ = store.Close()
	}()
	// Record cancelled builds too.
	if err := store.Append(context.WithoutCancel(ctx), report.HistoryEntry()); err != nil {
		slog.Warn("Failed to record build history", logfields.Path(dbPath), logfields.Error(err))
	}
}
