package build

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/history"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
)

// Stage names, in execution order.
const (
	StageLoadSources   = "load_sources"
	StageLoadProviders = "load_providers"
	StageLoadMacros    = "load_macros"
	StageResolveOrder  = "resolve_order"
	StageRenderMemory  = "render_memory"
	StageRenderOutput  = "render_output"
	StageCopyMedia     = "copy_media"
)

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusRunning   BuildStatus = "running"
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed || s == BuildStatusCancelled
}

// Report summarises one build.
type Report struct {
	RunID     string
	Status    BuildStatus
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	StageDurations map[string]time.Duration

	Files         int // source files, literal ones included
	FilesRendered int // non-literal files written in the output pass
	LiteralFiles  int
	PagesWritten  int
	BodiesWritten int
	BodiesSkipped int
	MediaFiles    int

	// Order is the in-memory render order.
	Order    []string
	Warnings []string
	Error    string
}

func newReport(runID string) *Report {
	return &Report{
		RunID:          runID,
		Status:         BuildStatusRunning,
		StartTime:      time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Outcome maps the report onto a metrics outcome label.
func (r *Report) Outcome() metrics.BuildOutcomeLabel {
	switch r.Status {
	case BuildStatusFailed:
		return metrics.BuildOutcomeFailed
	case BuildStatusCancelled:
		return metrics.BuildOutcomeCanceled
	}
	if len(r.Warnings) > 0 {
		return metrics.BuildOutcomeWarning
	}
	return metrics.BuildOutcomeSuccess
}

// HistoryEntry converts the report into a history ledger entry.
func (r *Report) HistoryEntry() history.Entry {
	return history.Entry{
		RunID:         r.RunID,
		Started:       r.StartTime,
		Duration:      r.Duration,
		Outcome:       string(r.Outcome()),
		FilesRendered: r.FilesRendered,
		LiteralFiles:  r.LiteralFiles,
		PagesWritten:  r.PagesWritten,
		BodiesWritten: r.BodiesWritten,
		BodiesSkipped: r.BodiesSkipped,
		Stages:        r.StageDurations,
		Error:         r.Error,
	}
}
