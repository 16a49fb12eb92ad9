package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/watch"
)

// WatchCmd rebuilds on every change to the source or media tree.
type WatchCmd struct {
	Output   string        `short:"o" help:"Override output.directory"`
	Interval time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
	Debounce time.Duration `help:"Quiet period before a rebuild starts" default:"300ms"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, w.Output)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rebuild := func(ctx context.Context) error {
		report, err := RunBuild(ctx, cfg)
		if err != nil {
			return err
		}
		slog.Info("Rebuilt", logfields.Count(report.PagesWritten), logfields.Output(cfg.Output.Directory))
		return nil
	}

	watcher := watch.New(
		[]string{cfg.Source.Directory, cfg.Media.Directory},
		rebuild,
		watch.WithDebounce(w.Debounce),
		watch.WithInterval(w.Interval),
	)
	return watcher.Run(ctx)
}
