package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yairfalse/vigil/types"
)

func testSnapshot(name string) *types.Snapshot {
	return &types.Snapshot{
		Workspace: types.Workspace{GID: "ws-1", Name: name},
		Users: []types.User{
			{GID: "1", Name: "Alice", IsAdmin: true},
		},
		ExtractedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_AppendAndGet(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rev1, err := store.Append(testSnapshot("first"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev1)

	rev2, err := store.Append(testSnapshot("second"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev2)

	snap, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "first", snap.Workspace.Name)

	latest, rev, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
	assert.Equal(t, "second", latest.Workspace.Name)
}

func TestStore_Empty(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, err = store.Latest()
	assert.ErrorIs(t, err, ErrNoSnapshots)

	_, err = store.Get(42)
	assert.ErrorIs(t, err, ErrNoSnapshots)

	assert.Zero(t, store.CurrentRevision())
}

func TestStore_Revisions(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	for i := 0; i < 3; i++ {
		_, err := store.Append(testSnapshot("snap"))
		require.NoError(t, err)
	}

	revs, err := store.Revisions()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, revs)
}

func TestStore_RevisionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	require.NoError(t, err)
	_, err = store.Append(testSnapshot("persisted"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	assert.Equal(t, int64(1), reopened.CurrentRevision())

	rev, err := reopened.Append(testSnapshot("next"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
}
