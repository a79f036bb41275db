package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfAndEntryKindMapping(t *testing.T) {
	assert.Equal(t, Modify|Attrib, selfKinds(fsnotify.Write|fsnotify.Chmod))
	assert.Equal(t, DeleteSelf, selfKinds(fsnotify.Remove))
	assert.Equal(t, MoveSelf, selfKinds(fsnotify.Rename))
	assert.Equal(t, Kind(0), selfKinds(fsnotify.Create))

	assert.Equal(t, Create, entryKinds(fsnotify.Create))
	assert.Equal(t, Delete, entryKinds(fsnotify.Remove))
	assert.Equal(t, MovedFrom, entryKinds(fsnotify.Rename))
}

func TestFSNotifySourceReportsDirectoryEntry(t *testing.T) {
	source, err := New(BackendFSNotify, nil)
	require.NoError(t, err)
	defer source.Close()
	assert.Equal(t, "fsnotify", source.Name())

	dir := t.TempDir()
	id, err := source.Add(dir, AllEvents)
	require.NoError(t, err)

	again, err := source.Add(dir, Create)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "created"), []byte("x"), 0o600))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-source.Events():
			if raw.Watch == id && raw.Name == "created" && raw.Kinds.Has(Create) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for create event")
		}
	}
}

func TestFSNotifySourceMissingPath(t *testing.T) {
	source, err := New(BackendFSNotify, nil)
	require.NoError(t, err)
	defer source.Close()

	_, err = source.Add(filepath.Join(t.TempDir(), "missing"), AllEvents)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFSNotifySourceCloseIsIdempotent(t *testing.T) {
	source, err := New(BackendFSNotify, nil)
	require.NoError(t, err)
	require.NoError(t, source.Close())
	require.NoError(t, source.Close())

	_, ok := <-source.Events()
	assert.False(t, ok)
	assert.NoError(t, source.Remove(WatchID(1)))
}
