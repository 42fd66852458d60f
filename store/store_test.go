package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := Open(t.TempDir(), "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = tree.Close() })
	return tree
}

func TestInsertGetRoundTrip(t *testing.T) {
	tree := openTestTree(t)
	require.NoError(t, tree.Insert([]byte("a"), []byte("1")))

	val, ok, err := tree.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)
}

func TestGetMissingKey(t *testing.T) {
	tree := openTestTree(t)
	_, ok, err := tree.Get([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	tree := openTestTree(t)
	require.NoError(t, tree.Insert([]byte("a"), []byte("1")))
	require.NoError(t, tree.Remove([]byte("a")))

	ok, err := tree.Contains([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveAbsentKeyIsNoop(t *testing.T) {
	tree := openTestTree(t)
	assert.NoError(t, tree.Remove([]byte("never-existed")))
}

func TestClear(t *testing.T) {
	tree := openTestTree(t)
	require.NoError(t, tree.Insert([]byte("a"), []byte("1")))
	require.NoError(t, tree.Insert([]byte("b"), []byte("2")))
	require.NoError(t, tree.Clear())

	entries, err := tree.Iter()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIterIsKeyOrdered(t *testing.T) {
	tree := openTestTree(t)
	require.NoError(t, tree.Insert([]byte("b"), []byte("2")))
	require.NoError(t, tree.Insert([]byte("a"), []byte("1")))
	require.NoError(t, tree.Insert([]byte("c"), []byte("3")))

	entries, err := tree.Iter()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []byte("a"), entries[0].Key)
	assert.Equal(t, []byte("b"), entries[1].Key)
	assert.Equal(t, []byte("c"), entries[2].Key)
}

func TestScanPrefix(t *testing.T) {
	tree := openTestTree(t)
	require.NoError(t, tree.Insert([]byte("yukikaze/abc"), []byte("1")))
	require.NoError(t, tree.Insert([]byte("yukikaze/def"), []byte("2")))
	require.NoError(t, tree.Insert([]byte("aoi/xyz"), []byte("3")))

	entries, err := tree.ScanPrefix([]byte("yukikaze"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	tree, err := Open(dir, "persist")
	require.NoError(t, err)
	require.NoError(t, tree.Insert([]byte("a"), []byte("1")))
	require.NoError(t, tree.Close())

	reopened, err := Open(dir, "persist")
	require.NoError(t, err)
	defer reopened.Close()

	val, ok, err := reopened.Get([]byte("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)
}
