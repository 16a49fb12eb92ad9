package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 3},
		{name: "filesystem", err: FileSystemError("unwritable").Build(), expected: 4},
		{name: "render", err: RenderError("undefined").Build(), expected: 5},
		{name: "structure", err: StructureError("unclosed section").Build(), expected: 6},
		{name: "provider", err: ProviderError("unauthorized").Build(), expected: 7},
		{name: "internal", err: WrapError(errors.New("bug"), CategoryInternal, "bug").Build(), expected: 10},
		{name: "unclassified", err: errors.New("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	err := RenderError("template execution failed").
		WithContext(KeyPath, "blog/index.html").
		WithCause(errors.New("map has no entry for key")).
		Build()

	assert.Equal(t, "render: template execution failed (blog/index.html)", quiet.FormatError(err))
	assert.Equal(t, err.Error(), verbose.FormatError(err))
	assert.Equal(t, "Error: plain", quiet.FormatError(errors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	assert.Equal(t, -1, code)

	adapter.HandleError(StructureError("unclosed section").WithContext(KeyPath, "a.html").WithContext(KeyLine, 2).Build())
	assert.Equal(t, 6, code)
	assert.Equal(t, "structure: unclosed section (a.html:2)\n", out.String())
	assert.Contains(t, logs.String(), "category=structure")

	logs.Reset()
	adapter.HandleError(HistoryError("locked").Build())
	assert.Equal(t, 8, code)
	assert.Empty(t, logs.String(), "non-fatal errors are not logged unless verbose")
}

func TestCLIErrorAdapter_LogError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter := NewCLIErrorAdapter(false, logger)

	adapter.logError(StructureError("unclosed section").WithContext(KeyPath, "a.html").Build())

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "category=structure")
	assert.Contains(t, out, "path=a.html")
}
