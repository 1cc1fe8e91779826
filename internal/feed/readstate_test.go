package feed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramonvasc/comunicahub/internal/kv"
)

func TestReadStateStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "readstate.json")

	backend, err := kv.NewFileStore(path)
	require.NoError(t, err)
	store, err := NewReadStateStore(backend)
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, "intimation-1", "deadline-2"))

	// Re-open from the same file, as a new session would.
	backend, err = kv.NewFileStore(path)
	require.NoError(t, err)
	reopened, err := NewReadStateStore(backend)
	require.NoError(t, err)

	acked, err := reopened.Has(ctx, "intimation-1")
	require.NoError(t, err)
	require.True(t, acked)

	acked, err = reopened.Has(ctx, "deadline-2")
	require.NoError(t, err)
	require.True(t, acked)

	acked, err = reopened.Has(ctx, "intimation-3")
	require.NoError(t, err)
	require.False(t, acked)
}

func TestReadStateStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()

	backend, err := kv.NewFileStore(filepath.Join(t.TempDir(), "readstate.json"))
	require.NoError(t, err)
	store, err := NewReadStateStore(backend)
	require.NoError(t, err)

	require.NoError(t, store.Add(ctx, "intimation-1"))
	require.NoError(t, store.Add(ctx, "intimation-1", ""))

	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
}
