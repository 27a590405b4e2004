package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)

func testSnapshot(t *testing.T) Snapshot {
	t.Helper()
	snap, err := Wrap(counterState{Meta: NewMeta("CounterState"), Count: 42})
	require.NoError(t, err)
	return snap
}

func TestInMemoryStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	snap := testSnapshot(t)

	require.NoError(t, store.Save(ctx, "team", snap))

	loaded, err := store.Load(ctx, "team")
	require.NoError(t, err)
	assert.JSONEq(t, string(snap), string(loaded))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"team"}, keys)

	require.NoError(t, store.Delete(ctx, "team"))
	_, err = store.Load(ctx, "team")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestInMemoryStore_CopiesOnSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	snap := testSnapshot(t)

	require.NoError(t, store.Save(ctx, "team", snap))
	snap[0] = 'X' // mutate caller's copy after save

	loaded, err := store.Load(ctx, "team")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), loaded[0])

	loaded[0] = 'Y' // mutating the loaded copy must not affect the store
	again, err := store.Load(ctx, "team")
	require.NoError(t, err)
	assert.Equal(t, byte('{'), again[0])
}

func TestInMemoryStore_RejectsInvalidSnapshot(t *testing.T) {
	store := NewInMemoryStore()
	err := store.Save(context.Background(), "team", Snapshot(`{"oops":true}`))
	assert.ErrorIs(t, err, ErrMalformedSnapshot)
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	snap := testSnapshot(t)
	require.NoError(t, store.Save(ctx, "team", snap))

	loaded, err := store.Load(ctx, "team")
	require.NoError(t, err)
	assert.JSONEq(t, string(snap), string(loaded))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"team"}, keys)
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../other", "a/b", ".hidden"} {
		assert.Error(t, store.Save(context.Background(), key, testSnapshot(t)), "key %q", key)
	}
}

func TestFileStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "team.json"), []byte("{truncated"), 0o644))

	_, err = store.Load(context.Background(), "team")
	assert.ErrorIs(t, err, ErrMalformedSnapshot)
}

func TestFileStore_LeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "team", testSnapshot(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "team.json", entries[0].Name())
}

func TestWriteFileReadFile_SinglePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coding", "team_state.json")
	snap := testSnapshot(t)

	require.NoError(t, WriteFile(path, snap))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, string(snap), string(loaded))
}
