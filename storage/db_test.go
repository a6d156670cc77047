package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBNotFound(t *testing.T) {
	db := NewMemDB()
	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	value, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), value)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOverlayIsolatesUntilCommit(t *testing.T) {
	parent := NewMemDB()
	require.NoError(t, parent.Put([]byte("keep"), []byte("1")))
	require.NoError(t, parent.Put([]byte("drop"), []byte("2")))

	overlay := NewOverlay(parent)
	require.NoError(t, overlay.Put([]byte("new"), []byte("3")))
	require.NoError(t, overlay.Delete([]byte("drop")))

	_, err := overlay.Get([]byte("drop"))
	require.ErrorIs(t, err, ErrNotFound)
	value, err := overlay.Get([]byte("keep"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)

	_, err = parent.Get([]byte("new"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 2, overlay.Pending())

	require.NoError(t, overlay.Commit())
	value, err = parent.Get([]byte("new"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), value)
	_, err = parent.Get([]byte("drop"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 0, overlay.Pending())
}

func TestOverlayDiscard(t *testing.T) {
	parent := NewMemDB()
	overlay := NewOverlay(parent)
	require.NoError(t, overlay.Put([]byte("k"), []byte("v")))
	overlay.Discard()
	require.NoError(t, overlay.Commit())
	require.Equal(t, 0, parent.Len())
}

func TestLevelDBBatchCommit(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Get([]byte("absent"))
	require.ErrorIs(t, err, ErrNotFound)

	overlay := NewOverlay(db)
	require.NoError(t, overlay.Put([]byte("a"), []byte("1")))
	require.NoError(t, overlay.Put([]byte("b"), []byte("2")))
	require.NoError(t, overlay.Commit())

	value, err := db.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), value)
}
