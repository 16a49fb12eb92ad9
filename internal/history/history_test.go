package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	started := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, store.Append(ctx, Entry{
		RunID: "first", Started: started, Duration: 1500 * time.Millisecond, Outcome: "success",
		FilesRendered: 3, PagesWritten: 2, BodiesWritten: 1, BodiesSkipped: 1,
		Stages: map[string]time.Duration{"render_output": 40 * time.Millisecond},
	}))
	require.NoError(t, store.Append(ctx, Entry{
		RunID: "second", Started: started.Add(time.Minute), Outcome: "failed", Error: "structure: unclosed section",
	}))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "second", entries[0].RunID)
	assert.Equal(t, "structure: unclosed section", entries[0].Error)
	assert.Equal(t, "first", entries[1].RunID)
	assert.Equal(t, started, entries[1].Started)
	assert.Equal(t, 1500*time.Millisecond, entries[1].Duration)
	assert.Equal(t, 2, entries[1].PagesWritten)
	assert.Equal(t, 40*time.Millisecond, entries[1].Stages["render_output"])

	latest, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "second", latest[0].RunID)
}

func TestOpenPersistsAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, Entry{RunID: "kept", Started: time.Now(), Outcome: "success"}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	entries, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].RunID)
}
