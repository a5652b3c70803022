package trie

import (
	"testing"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"relpchain/storage"
)

func TestTrieCommitPersistsRecords(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDB(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)
	require.NoError(t, tr.Put([]byte("relp/global"), []byte("supply")))
	root, err := tr.Commit(1)
	require.NoError(t, err)
	require.Equal(t, root, tr.Root())

	db1.Close()

	db2, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)
	got, err := restored.Get([]byte("relp/global"))
	require.NoError(t, err)
	require.Equal(t, []byte("supply"), got)
}

func TestTrieCopyIsolatesWrites(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)
	key := []byte("relp/account/a")
	require.NoError(t, tr.Put(key, []byte{1}))

	working := tr.Copy()
	require.NoError(t, working.Put(key, []byte{2}))

	got, err := tr.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, got)
	require.NotEqual(t, tr.Hash(), working.Hash())
}

func TestTrieCommitWithoutWritesKeepsRoot(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)
	require.False(t, tr.Pending())
	root, err := tr.Commit(1)
	require.NoError(t, err)
	require.Equal(t, gethtypes.EmptyRootHash, root)

	require.NoError(t, tr.Put([]byte("relp/award/1"), []byte{7}))
	require.True(t, tr.Pending())
	first, err := tr.Commit(2)
	require.NoError(t, err)
	require.False(t, tr.Pending())

	again, err := tr.Commit(3)
	require.NoError(t, err)
	require.Equal(t, first, again)
}

func TestTrieRejectsUnknownRoot(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	_, err := NewTrie(db, []byte{0x01, 0x02})
	require.Error(t, err)
}
