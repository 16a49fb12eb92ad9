package build

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/observability"
	"git.home.luguber.info/inful/pagesmith/internal/output"
	"git.home.luguber.info/inful/pagesmith/internal/provider"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/section"
	"git.home.luguber.info/inful/pagesmith/internal/source"
	"git.home.luguber.info/inful/pagesmith/internal/token"
)

// Builder runs full builds for one configuration.
type Builder struct {
	cfg       *config.Config
	fs        afero.Fs
	recorder  metrics.Recorder
	factories []provider.Factory
	runID     string
}

// Option configures a Builder.
type Option func(*Builder)

// WithFs sets the filesystem used for sources, output and media.
func WithFs(fsys afero.Fs) Option {
	return func(b *Builder) { b.fs = fsys }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithProviderFactories replaces the builtin provider factories.
func WithProviderFactories(f []provider.Factory) Option {
	return func(b *Builder) { b.factories = f }
}

// WithRunID pins the run ID instead of drawing a fresh one per build.
func WithRunID(id string) Option {
	return func(b *Builder) { b.runID = id }
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		fs:        afero.NewOsFs(),
		recorder:  metrics.NoopRecorder{},
		factories: provider.Builtin,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// run holds the state of a single build.
type run struct {
	sentinel *token.Sentinel
	report   *Report
	store    *source.Store
	files    []*source.File
	context  source.Context
	registry *provider.Registry
	renderer *render.Renderer
	order    []*source.File
}

type stage struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

// Run executes one full build. The returned report is never nil.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	sentinel := token.NewSentinel(b.runID)
	r := &run{sentinel: sentinel, report: newReport(sentinel.RunID())}
	ctx = observability.WithRunID(ctx, r.report.RunID)

	if b.cfg == nil {
		return b.finish(ctx, r.report, ferrors.ConfigError("config required").Build())
	}
	observability.InfoContext(ctx, "Starting build",
		logfields.Path(b.cfg.Source.Directory),
		logfields.Output(b.cfg.Output.Directory))

	stages := []stage{
		{StageLoadSources, b.loadSources},
		{StageLoadProviders, b.loadProviders},
		{StageLoadMacros, b.loadMacros},
		{StageResolveOrder, b.resolveOrder},
		{StageRenderMemory, b.renderMemory},
		{StageRenderOutput, b.renderOutput},
		{StageCopyMedia, b.copyMedia},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			b.recorder.IncStageResult(s.name, metrics.ResultCanceled)
			return b.finish(ctx, r.report, err)
		}
		sctx := observability.WithStage(ctx, s.name)
		start := time.Now()
		err := s.fn(sctx, r)
		d := time.Since(start)
		r.report.StageDurations[s.name] = d
		b.recorder.ObserveStageDuration(s.name, d)
		if err != nil {
			b.recorder.IncStageResult(s.name, stageResult(err))
			observability.ErrorContext(sctx, "Stage failed", logfields.Error(err))
			return b.finish(ctx, r.report, err)
		}
		b.recorder.IncStageResult(s.name, metrics.ResultSuccess)
		observability.DebugContext(sctx, "Stage complete", logfields.DurationMS(float64(d.Microseconds())/1000))
	}
	return b.finish(ctx, r.report, nil)
}

func stageResult(err error) metrics.ResultLabel {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return metrics.ResultCanceled
	}
	return metrics.ResultFatal
}

func (b *Builder) finish(ctx context.Context, report *Report, err error) (*Report, error) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	switch {
	case err == nil:
		report.Status = BuildStatusSuccess
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		report.Status = BuildStatusCancelled
		report.Error = err.Error()
	default:
		report.Status = BuildStatusFailed
		report.Error = err.Error()
	}

	b.recorder.IncBuildOutcome(report.Outcome())
	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.AddOutputs(metrics.OutputPage, report.PagesWritten)
	b.recorder.AddOutputs(metrics.OutputBody, report.BodiesWritten)
	b.recorder.AddOutputs(metrics.OutputSkippedBody, report.BodiesSkipped)
	b.recorder.AddOutputs(metrics.OutputLiteral, report.LiteralFiles)
	b.recorder.AddOutputs(metrics.OutputMedia, report.MediaFiles)

	attrs := []slog.Attr{
		slog.String("status", string(report.Status)),
		slog.Int("pages", report.PagesWritten),
		slog.Int("files", report.FilesRendered),
		slog.Int("warnings", len(report.Warnings)),
		logfields.DurationMS(float64(report.Duration.Microseconds()) / 1000),
	}
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
		return report, err
	}
	observability.InfoContext(ctx, "Build complete", attrs...)
	return report, nil
}

func (b *Builder) loadSources(ctx context.Context, r *run) error {
	r.store = source.NewStore(b.fs, b.cfg.Source.Directory,
		source.WithMacroLibrary(b.cfg.Source.MacroLibrary),
		source.WithLiteralMarker(b.cfg.Source.LiteralMarker))

	files, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	r.files = files
	r.context = source.NewContext(files)
	r.report.Files = len(files)
	observability.InfoContext(ctx, "Loaded source files", logfields.Count(len(files)))
	return nil
}

func (b *Builder) loadProviders(ctx context.Context, r *run) error {
	reg, err := provider.Load(ctx, b.cfg.Providers, b.factories)
	if err != nil {
		return err
	}
	r.registry = reg
	if ns := reg.Namespaces(); len(ns) > 0 {
		observability.InfoContext(ctx, "Providers ready", slog.String("namespaces", strings.Join(ns, ",")))
	}
	return nil
}

func (b *Builder) loadMacros(ctx context.Context, r *run) error {
	macros, found, err := r.store.LoadMacroLibrary()
	if err != nil {
		return err
	}
	if !found && b.cfg.Source.MacroLibrary != "" {
		r.report.warn("macro library %s not found", b.cfg.Source.MacroLibrary)
	}

	toolbox := render.NewToolbox(r.sentinel,
		render.WithSlugDelimiter(b.cfg.Render.SlugDelimiter),
		render.WithDataFs(b.fs, b.cfg.Source.Directory),
		render.WithProviders(r.registry.Templates()))
	r.renderer = render.NewRenderer(toolbox,
		render.WithDelims(b.cfg.Render.LeftDelim, b.cfg.Render.RightDelim),
		render.WithMacroLibrary(macros))
	if found {
		observability.DebugContext(ctx, "Loaded macro library", logfields.Path(b.cfg.MacroLibraryPath()))
	}
	return nil
}

func (b *Builder) resolveOrder(ctx context.Context, r *run) error {
	renderable := make([]*source.File, 0, len(r.files))
	for _, f := range r.files {
		if !f.Literal {
			renderable = append(renderable, f)
		}
	}

	if b.cfg.Build.IncludeOrder == config.IncludeOrderSweep {
		r.order = renderable
	} else {
		deps := make(map[string][]string, len(renderable))
		for _, f := range renderable {
			d, err := r.renderer.Dependencies(f.Path, f.Raw)
			if err != nil {
				return err
			}
			deps[f.Path] = d
		}
		ordered, cyclic := resolveOrder(renderable, deps)
		if len(cyclic) > 0 {
			r.report.warn("include cycle between %s", strings.Join(cyclic, ", "))
			observability.WarnContext(ctx, "Include cycle detected, falling back to enumeration order",
				slog.String("files", strings.Join(cyclic, ",")))
		}
		r.order = ordered
	}

	r.report.Order = make([]string, 0, len(r.order))
	for _, f := range r.order {
		r.report.Order = append(r.report.Order, f.Path)
	}
	return nil
}

func (b *Builder) renderMemory(ctx context.Context, r *run) error {
	observability.InfoContext(ctx, "Rendering files into memory for includes", logfields.Count(len(r.order)))
	for _, f := range r.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := r.renderer.Render(f.Path, r.context[f.Path], r.context)
		if err != nil {
			return err
		}
		r.context[f.Path] = out
		f.Rendered = out
		observability.DebugContext(observability.WithPath(ctx, f.Path), "Rendered into context")
	}
	return nil
}

func (b *Builder) renderOutput(ctx context.Context, r *run) error {
	writer := output.NewWriter(b.fs, b.cfg.Output.Directory)
	if err := writer.Prepare(b.cfg.Output.Clean); err != nil {
		return err
	}
	splitter := section.NewSplitter(r.sentinel, section.WithStrictPairing(b.cfg.Build.StrictSections))

	observability.InfoContext(ctx, "Rendering files onto disk", logfields.Output(writer.Root()))
	for _, f := range r.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Literal {
			if err := writer.WriteLiteral(f.Path, []byte(f.Raw)); err != nil {
				return err
			}
			r.report.LiteralFiles++
			continue
		}

		out, err := r.renderer.Render(f.Path, r.context[f.Path], r.context)
		if err != nil {
			return err
		}
		res, err := splitter.Split(out)
		if err != nil {
			return withPath(err, f.Path)
		}
		fctx := observability.WithPath(ctx, f.Path)
		if len(res.Sections) > 0 {
			observability.InfoContext(fctx, "Processing sections", logfields.Count(len(res.Sections)))
		}
		pages, err := writer.WriteSections(f.Path, res.Sections)
		r.report.PagesWritten += pages
		if err != nil {
			return err
		}
		written, err := writer.WriteBody(f.Path, res.Body)
		if err != nil {
			return err
		}
		if written {
			r.report.BodiesWritten++
		} else {
			r.report.BodiesSkipped++
			r.report.warn("%s has no content outside sections", f.Path)
		}
		r.report.FilesRendered++
	}
	return nil
}

func (b *Builder) copyMedia(ctx context.Context, r *run) error {
	dir := b.cfg.Media.Directory
	if dir == "" {
		return nil
	}
	exists, err := afero.DirExists(b.fs, dir)
	if err != nil {
		return ferrors.FileSystemError("media directory not accessible").
			WithCause(err).
			WithContext(ferrors.KeyPath, dir).
			Build()
	}
	if !exists {
		r.report.warn("media directory %s not found", dir)
		observability.WarnContext(ctx, "Media directory not found, skipping copy", logfields.Path(dir))
		return nil
	}

	writer := output.NewWriter(b.fs, b.cfg.Output.Directory)
	n, err := writer.CopyTree(b.fs, dir, b.cfg.Media.Target)
	r.report.MediaFiles = n
	return err
}

func withPath(err error, path string) error {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.WithContext(ferrors.KeyPath, path)
	}
	return err
}
