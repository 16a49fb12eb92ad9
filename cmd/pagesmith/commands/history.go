package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/history"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// HistoryCmd lists recent builds.
type HistoryCmd struct {
	Limit int `short:"n" help:"Number of builds to show" default:"10"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, "")
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return ferrors.ConfigError("history.database is not configured").Build()
	}
	store, err := history.Open(cfg.History.Database)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	entries, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	return printHistory(os.Stdout, entries)
}

func printHistory(w io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tRUN\tOUTCOME\tFILES\tPAGES\tDURATION\tERROR")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			e.Started.Format(time.RFC3339), shortID(e.RunID), e.Outcome,
			e.FilesRendered, e.PagesWritten, e.Duration.Round(time.Millisecond), e.Error)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
