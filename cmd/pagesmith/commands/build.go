package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override output.directory"`
	Clean  bool   `help:"Remove the output directory before building"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, b.Output)
	if err != nil {
		return err
	}
	if b.Clean {
		cfg.Output.Clean = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := RunBuild(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Built %d pages and %d bodies from %d files into %s\n",
		report.PagesWritten, report.BodiesWritten, report.Files, cfg.Output.Directory)
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}
