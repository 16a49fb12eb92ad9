// Package observability carries build-scoped log attributes through a context.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// Scope is the part of a build a log line belongs to.
type Scope struct {
	RunID string
	Stage string
	Path  string // source file being processed
}

type scopeKey struct{}

func with(ctx context.Context, set func(*Scope)) context.Context {
	s := ScopeFrom(ctx)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRunID scopes ctx to one build.
func WithRunID(ctx context.Context, runID string) context.Context {
	return with(ctx, func(s *Scope) { s.RunID = runID })
}

// WithStage scopes ctx to a build stage and clears any file path.
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(s *Scope) {
		s.Stage = stage
		s.Path = ""
	})
}

// WithPath scopes ctx to one source file.
func WithPath(ctx context.Context, path string) context.Context {
	return with(ctx, func(s *Scope) { s.Path = path })
}

// ScopeFrom returns the Scope stored in ctx, or the zero Scope.
func ScopeFrom(ctx context.Context) Scope {
	if s, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return s
	}
	return Scope{}
}

func (s Scope) attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 3)
	if s.RunID != "" {
		attrs = append(attrs, logfields.RunID(s.RunID))
	}
	if s.Stage != "" {
		attrs = append(attrs, logfields.Stage(s.Stage))
	}
	if s.Path != "" {
		attrs = append(attrs, logfields.Path(s.Path))
	}
	return attrs
}

func logAt(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if !slog.Default().Enabled(ctx, level) {
		return
	}
	slog.LogAttrs(ctx, level, msg, append(ScopeFrom(ctx).attrs(), attrs...)...)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelError, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelDebug, msg, attrs)
}
