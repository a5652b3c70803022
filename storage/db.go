package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by Get for keys that were never written.
var ErrNotFound = errors.New("storage: key not found")

// Database is a key-value store that also hosts the trie node database, so
// the ledger state and node metadata share one backend.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Close()
	TrieDB() *triedb.Database
}

type kvStore struct {
	db     ethdb.Database
	trieDB *triedb.Database
}

func newKVStore(db ethdb.Database) kvStore {
	return kvStore{db: db, trieDB: triedb.NewDatabase(db, triedb.HashDefaults)}
}

func (s kvStore) Put(key []byte, value []byte) error {
	return s.db.Put(key, value)
}

func (s kvStore) Get(key []byte) ([]byte, error) {
	ok, err := s.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.db.Get(key)
}

func (s kvStore) TrieDB() *triedb.Database {
	return s.trieDB
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	kvStore
}

func NewMemDB() *MemDB {
	return &MemDB{kvStore: newKVStore(rawdb.NewMemoryDatabase())}
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	_ = db.trieDB.Close()
}

// --- Persistent DB ---

const (
	levelDBCacheMiB = 16
	levelDBHandles  = 64
)

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	kvStore
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := gethleveldb.NewCustom(path, "relp/db/", func(o *opt.Options) {
		o.OpenFilesCacheCapacity = levelDBHandles
		o.BlockCacheCapacity = levelDBCacheMiB / 2 * opt.MiB
		o.WriteBuffer = levelDBCacheMiB / 4 * opt.MiB
	})
	if err != nil {
		return nil, err
	}
	return &LevelDB{kvStore: newKVStore(rawdb.NewDatabase(db))}, nil
}

// Close flushes the trie cache and closes the database.
func (ldb *LevelDB) Close() {
	_ = ldb.trieDB.Close()
	_ = ldb.db.Close()
}
