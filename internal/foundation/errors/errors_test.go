package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder", func(t *testing.T) {
		err := ConfigError("invalid configuration").
			WithContext("file", "pagesmith.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().String("file")
		require.True(t, ok)
		assert.Equal(t, "pagesmith.yaml", file)
	})

	t.Run("severity defaults", func(t *testing.T) {
		assert.True(t, StructureError("unclosed section").Build().IsFatal())
		assert.False(t, ProviderError("unauthorized").Build().IsFatal())
		assert.False(t, HistoryError("locked").Build().IsFatal())
		assert.True(t, ProviderError("unauthorized").Fatal().Build().IsFatal())
		assert.Equal(t, SeverityWarning, RenderError("x").Warning().Build().Severity())
	})

	t.Run("detection", func(t *testing.T) {
		err := StructureError("unclosed section").Build()
		assert.True(t, IsClassified(err))
		assert.True(t, HasCategory(err, CategoryStructure))
		assert.False(t, HasCategory(err, CategoryRender))
		assert.False(t, IsClassified(errors.New("plain")))
	})
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *ClassifiedError
		want string
	}{
		{"bare", RenderError("parse failed").Build(), "render: parse failed"},
		{"cause", WrapError(errors.New("boom"), CategoryFileSystem, "write failed").Build(), "filesystem: write failed: boom"},
		{"path", RenderError("exec failed").WithContext(KeyPath, "blog/index.html").Build(), "render: blog/index.html: exec failed"},
		{"path and line", StructureError("unclosed section").WithContext(KeyPath, "a.html").WithContext(KeyLine, 3).Build(), "structure: a.html:3: unclosed section"},
		{"line only", StructureError("invalid tag payload").WithContext(KeyLine, 7).Build(), "structure: line 7: invalid tag payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorChain(t *testing.T) {
	cause := errors.New("permission denied")
	classified := FileSystemError("cannot write page").WithCause(cause).Build()
	outer := fmt.Errorf("stage render_output: %w", classified)

	got, ok := AsClassified(outer)
	require.True(t, ok)
	assert.Equal(t, CategoryFileSystem, got.Category())
	assert.ErrorIs(t, outer, cause)
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := StructureError("unclosed section").WithContext(KeyLine, 4).Build()
	derived := base.WithContext(KeyPath, "index.html")

	assert.Equal(t, "line 4", base.Location())
	assert.Equal(t, "index.html:4", derived.Location())
	assert.NotContains(t, base.Context(), KeyPath)
}

func TestIsMatchesCategoryAndMessage(t *testing.T) {
	sentinel := StructureError("unclosed section").Build()
	err := fmt.Errorf("split: %w", StructureError("unclosed section").WithContext(KeyPath, "a.html").Build())

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, StructureError("other").Build())
}
