package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"

	"relpchain/storage"
)

// Trie is the ledger's state trie. Records are stored under keccak256 of
// their key, and each commit chains the new root to the previous one.
//
// Trie is not safe for concurrent use.
type Trie struct {
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
}

// NewTrie opens the trie at root. A nil or empty root denotes the empty trie.
func NewTrie(store storage.Database, root []byte) (*Trie, error) {
	if store == nil {
		return nil, fmt.Errorf("trie: store required")
	}
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	t := &Trie{trieDB: store.TrieDB()}
	if err := t.open(rootHash); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) open(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return fmt.Errorf("trie: open root %s: %w", root.Hex(), err)
	}
	t.trie = underlying
	t.root = root
	return nil
}

func hashKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// Get returns the record stored under key, or nil if there is none.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(hashKey(key))
}

// Put stores value under key.
func (t *Trie) Put(key, value []byte) error {
	return t.trie.Update(hashKey(key), value)
}

// Hash returns the root hash including uncommitted writes.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Pending reports whether writes were made since the last commit.
func (t *Trie) Pending() bool {
	return t.trie.Hash() != t.root
}

// Copy returns an independent working copy sharing the node database.
func (t *Trie) Copy() *Trie {
	return &Trie{
		trieDB: t.trieDB,
		trie:   t.trie.Copy(),
		root:   t.root,
	}
}

// Commit flushes pending writes for height and returns the new root. The
// previous root is recorded as the parent. Without pending writes the root
// is returned unchanged.
func (t *Trie) Commit(height uint64) (common.Hash, error) {
	if !t.Pending() {
		return t.root, nil
	}
	parent := t.root
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Update(newRoot, parent, height, merged, nil); err != nil {
			return common.Hash{}, fmt.Errorf("trie: update at height %d: %w", height, err)
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, fmt.Errorf("trie: flush at height %d: %w", height, err)
		}
	}
	if err := t.open(newRoot); err != nil {
		return common.Hash{}, err
	}
	return newRoot, nil
}
